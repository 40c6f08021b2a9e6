package review

import (
	"strings"
	"unicode/utf8"
)

// Classifier derives a structured Report from the model's free-text
// completion. Implementations must be total over all string inputs.
type Classifier interface {
	Classify(completion string) *Report
}

const (
	maxKeyFindings     = 5
	maxRecommendations = 3
	// Lines at or below this rune count are too short to be findings.
	minFindingRunes = 10
)

// categoryRule binds a category to its trigger keywords, its canned issue
// line, and the default justification of each sub-check.
type categoryRule struct {
	key      string
	keywords []string
	issue    string
	checks   []checkDefault
}

type checkDefault struct {
	key     string
	details string
}

// Trigger keywords are matched as raw substrings against the completion,
// without normalization. The canned strings mirror the report's working
// language.
var categoryRules = []categoryRule{
	{
		key:      CategoryPersonalInfo,
		keywords: []string{"个人", "姓名", "病人", "照片"},
		issue:    "发现个人信息相关问题",
		checks: []checkDefault{
			{"name_check", "未发现个人姓名"},
			{"id_check", "未发现病人ID"},
			{"photo_check", "未发现面部照片"},
			{"contact_check", "未发现联系方式"},
		},
	},
	{
		key:      CategoryContentCompliance,
		keywords: []string{"政治", "敏感", "不当", "机密"},
		issue:    "发现内容合规问题",
		checks: []checkDefault{
			{"political_check", "未发现敏感政治内容"},
			{"inappropriate_check", "未发现不当内容"},
			{"confidential_check", "未发现机密信息"},
			{"trademark_check", "未发现未授权商标"},
		},
	},
	{
		key:      CategoryReferenceStandard,
		keywords: []string{"引用", "参考", "版权"},
		issue:    "发现引用规范问题",
		checks: []checkDefault{
			{"pubmed_check", "无需验证引用"},
			{"format_check", "格式规范"},
			{"accuracy_check", "内容准确"},
			{"copyright_check", "未发现版权问题"},
		},
	},
	{
		key:      CategoryQualityStandard,
		keywords: []string{"清晰", "模糊", "水印", "分辨率"},
		issue:    "发现图片质量问题",
		checks: []checkDefault{
			{"clarity_check", "图像清晰度良好"},
			{"watermark_check", "未发现干扰元素"},
			{"professional_check", "符合专业要求"},
			{"resolution_check", "分辨率适合"},
		},
	},
}

const (
	summaryPass = "图片审核完成"
	summaryFail = "审核发现问题，请查看详细信息"
)

// KeywordClassifier flips a category to FAIL when any of its trigger
// keywords appears in the completion text. It stands in for a structured
// output contract with the model: category-level status flips, but sub-check
// details are not re-derived from the text.
type KeywordClassifier struct{}

// NewKeywordClassifier returns the default keyword-presence classifier.
func NewKeywordClassifier() *KeywordClassifier { return &KeywordClassifier{} }

// Classify maps a completion onto the fixed report schema. It is
// deterministic and pure; an empty completion yields an all-pass report.
func (c *KeywordClassifier) Classify(completion string) *Report {
	report := newDefaultReport()

	failed := false
	for _, rule := range categoryRules {
		if !containsAny(completion, rule.keywords) {
			continue
		}
		cat := report.DetailedReview[rule.key]
		cat.Status = TokenFail
		cat.Issues = append(cat.Issues, rule.issue)
		report.DetailedReview[rule.key] = cat
		failed = true
	}

	if failed {
		report.Overall.Status = StatusFail
		report.Overall.Summary = summaryFail
	}

	report.KeyFindings = extractKeyFindings(completion)
	report.Recommendations = extractRecommendations(completion)
	return report
}

// newDefaultReport builds an all-pass report with the canned per-sub-check
// justifications. Every category and sub-check key is present.
func newDefaultReport() *Report {
	detailed := make(map[string]CategoryResult, len(categoryRules))
	for _, rule := range categoryRules {
		checks := make(map[string]CheckResult, len(rule.checks))
		for _, ck := range rule.checks {
			checks[ck.key] = CheckResult{Status: TokenPass, Details: ck.details}
		}
		detailed[rule.key] = CategoryResult{
			Status:  TokenPass,
			Issues:  []string{},
			Details: checks,
		}
	}
	return &Report{
		Overall:         OverallResult{Status: StatusPass, Summary: summaryPass},
		DetailedReview:  detailed,
		KeyFindings:     []string{},
		Recommendations: []string{},
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// extractKeyFindings keeps the first maxKeyFindings trimmed lines that are
// long enough to carry a finding, in original order.
func extractKeyFindings(completion string) []string {
	findings := []string{}
	for _, line := range strings.Split(completion, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= minFindingRunes {
			continue
		}
		findings = append(findings, line)
		if len(findings) == maxKeyFindings {
			break
		}
	}
	return findings
}

// extractRecommendations keeps the first maxRecommendations trimmed lines
// that mention a suggestion, in original order.
func extractRecommendations(completion string) []string {
	recs := []string{}
	for _, line := range strings.Split(completion, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "建议") && !strings.Contains(line, "推荐") {
			continue
		}
		recs = append(recs, line)
		if len(recs) == maxRecommendations {
			break
		}
	}
	return recs
}
