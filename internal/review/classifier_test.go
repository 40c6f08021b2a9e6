package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_NoTriggersAllPass(t *testing.T) {
	report := NewKeywordClassifier().Classify("内容符合要求，未见需要整改之处。")

	assert.Equal(t, StatusPass, report.Overall.Status)
	assert.Equal(t, "图片审核完成", report.Overall.Summary)
	for key, cat := range report.DetailedReview {
		assert.Equal(t, TokenPass, cat.Status, "category %s", key)
		assert.Empty(t, cat.Issues, "category %s", key)
	}
}

func TestClassify_EmptyCompletion(t *testing.T) {
	report := NewKeywordClassifier().Classify("")

	assert.Equal(t, StatusPass, report.Overall.Status)
	assert.Len(t, report.DetailedReview, 4)
	assert.NotNil(t, report.KeyFindings)
	assert.Empty(t, report.KeyFindings)
	assert.NotNil(t, report.Recommendations)
	assert.Empty(t, report.Recommendations)
}

func TestClassify_SchemaAlwaysComplete(t *testing.T) {
	report := NewKeywordClassifier().Classify("")

	wantChecks := map[string][]string{
		CategoryPersonalInfo:      {"name_check", "id_check", "photo_check", "contact_check"},
		CategoryContentCompliance: {"political_check", "inappropriate_check", "confidential_check", "trademark_check"},
		CategoryReferenceStandard: {"pubmed_check", "format_check", "accuracy_check", "copyright_check"},
		CategoryQualityStandard:   {"clarity_check", "watermark_check", "professional_check", "resolution_check"},
	}

	for category, checks := range wantChecks {
		cat, ok := report.DetailedReview[category]
		require.True(t, ok, "category %s missing", category)
		require.Len(t, cat.Details, 4, "category %s", category)
		for _, check := range checks {
			result, ok := cat.Details[check]
			require.True(t, ok, "check %s missing in %s", check, category)
			assert.Equal(t, TokenPass, result.Status)
			assert.NotEmpty(t, result.Details)
		}
	}
}

func TestClassify_PersonalInfoTrigger(t *testing.T) {
	report := NewKeywordClassifier().Classify("幻灯片中包含病人的详细资料。")

	assert.Equal(t, StatusFail, report.Overall.Status)
	assert.Equal(t, "审核发现问题，请查看详细信息", report.Overall.Summary)

	cat := report.DetailedReview[CategoryPersonalInfo]
	assert.Equal(t, TokenFail, cat.Status)
	assert.Equal(t, []string{"发现个人信息相关问题"}, cat.Issues)

	// Other categories stay untouched.
	assert.Equal(t, TokenPass, report.DetailedReview[CategoryContentCompliance].Status)
	assert.Equal(t, TokenPass, report.DetailedReview[CategoryReferenceStandard].Status)
	assert.Equal(t, TokenPass, report.DetailedReview[CategoryQualityStandard].Status)
}

func TestClassify_EachCategoryTrigger(t *testing.T) {
	cases := map[string]struct {
		completion string
		category   string
		issue      string
	}{
		"compliance":  {"该页涉及政治内容。", CategoryContentCompliance, "发现内容合规问题"},
		"reference":   {"缺少参考文献标注。", CategoryReferenceStandard, "发现引用规范问题"},
		"quality":     {"图片存在水印干扰。", CategoryQualityStandard, "发现图片质量问题"},
		"personal":    {"第二页出现了姓名。", CategoryPersonalInfo, "发现个人信息相关问题"},
		"blurriness":  {"整体画面非常模糊。", CategoryQualityStandard, "发现图片质量问题"},
		"confidental": {"此段包含机密条款。", CategoryContentCompliance, "发现内容合规问题"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			report := NewKeywordClassifier().Classify(tc.completion)
			assert.Equal(t, StatusFail, report.Overall.Status)
			cat := report.DetailedReview[tc.category]
			assert.Equal(t, TokenFail, cat.Status)
			assert.Contains(t, cat.Issues, tc.issue)
		})
	}
}

func TestClassify_MultipleCategories(t *testing.T) {
	report := NewKeywordClassifier().Classify("发现病人照片，且引用格式不完整，图片分辨率偏低。")

	assert.Equal(t, StatusFail, report.Overall.Status)
	assert.Equal(t, TokenFail, report.DetailedReview[CategoryPersonalInfo].Status)
	assert.Equal(t, TokenFail, report.DetailedReview[CategoryReferenceStandard].Status)
	assert.Equal(t, TokenFail, report.DetailedReview[CategoryQualityStandard].Status)
	assert.Equal(t, TokenPass, report.DetailedReview[CategoryContentCompliance].Status)
}

func TestExtractKeyFindings_SkipsShortLines(t *testing.T) {
	completion := strings.Join([]string{
		"短行",
		"  这一行的长度超过了十个汉字所以会被保留下来  ",
		"这行恰好十个字被丢弃",
		"另一行同样超过十个汉字因此也保留在结果里",
	}, "\n")

	findings := extractKeyFindings(completion)
	require.Len(t, findings, 2)
	assert.Equal(t, "这一行的长度超过了十个汉字所以会被保留下来", findings[0])
	assert.Equal(t, "另一行同样超过十个汉字因此也保留在结果里", findings[1])
}

func TestExtractKeyFindings_CapsAtFive(t *testing.T) {
	var lines []string
	for i := 0; i < 8; i++ {
		lines = append(lines, "这是一条足够长的审核结论行用于计数测试")
	}

	findings := extractKeyFindings(strings.Join(lines, "\n"))
	assert.Len(t, findings, 5)
}

func TestExtractRecommendations(t *testing.T) {
	completion := strings.Join([]string{
		"总体情况良好",
		"建议补充引用来源",
		"推荐使用更高分辨率的图片",
		"建议移除第二页的水印",
		"建议调整配色方案",
	}, "\n")

	recs := extractRecommendations(completion)
	require.Len(t, recs, 3)
	assert.Equal(t, "建议补充引用来源", recs[0])
	assert.Equal(t, "推荐使用更高分辨率的图片", recs[1])
	assert.Equal(t, "建议移除第二页的水印", recs[2])
}

func TestExtractRecommendations_NoMatches(t *testing.T) {
	recs := extractRecommendations("整体情况良好，无需调整。")
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}
