package review

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PromptBuilder constructs the review instruction for one content unit.
// The custom argument is the per-upload prompt carried through the job
// payload; implementations may ignore it.
type PromptBuilder interface {
	BuildPrompt(d ContentDescriptor, custom string) string
}

// TemplatePromptBuilder renders the fixed schema-constrained review prompt.
// It is a pure function of the descriptor: the same descriptor always yields
// a byte-identical prompt.
type TemplatePromptBuilder struct{}

// NewTemplatePromptBuilder returns the default prompt builder.
func NewTemplatePromptBuilder() *TemplatePromptBuilder { return &TemplatePromptBuilder{} }

// BuildPrompt renders the review instruction, embedding the serialized
// descriptor so the model sees the declared metadata even when no image
// bytes are attached. The custom prompt is not incorporated yet.
func (b *TemplatePromptBuilder) BuildPrompt(d ContentDescriptor, custom string) string {
	_ = custom

	contentKind := "PPT"
	if strings.HasPrefix(d.ContentType, "image/") {
		contentKind = "图片"
	}

	// Struct marshaling gives a stable field order, keeping the prompt
	// deterministic across calls.
	descriptorJSON, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		descriptorJSON = []byte("{}")
	}

	return fmt.Sprintf(promptTemplate, contentKind, descriptorJSON)
}

const promptTemplate = `请对%s内容进行详细审核。你必须对每个审核类别和子项进行具体评估，并在回复中详细说明每一项的审核结果。

===内容信息===
%s

===审核要求===
1. 个人信息审核 - 必须逐项检查并详细说明结果：
   - 个人姓名检查：是否出现中文名或拼音
   - 病人ID检查：是否存在门诊号或住院号
   - 面部照片检查：是否出现病人面部照片
   - 联系方式检查：是否暴露电话、邮箱等

2. 内容合规审核 - 必须逐项检查并详细说明结果：
   - 政治内容检查：是否包含敏感政治内容
   - 不当内容检查：是否包含不适宜的内容
   - 机密信息检查：是否包含商业机密或内部信息
   - 商标检查：是否包含未经授权的logo或商标

3. 引用规范审核 - 必须逐项检查并详细说明结果：
   - PubMed验证：引用内容是否能在PubMed上查证
   - 格式规范：引用格式是否符合学术规范
   - 内容准确性：引用内容是否准确反映原文
   - 版权合规：是否存在版权问题

4. 质量规范审核 - 必须逐项检查并详细说明结果：
   - 清晰度检查：图像清晰度是否达到专业标准
   - 干扰元素检查：是否存在影响观看的水印或干扰
   - 专业性检查：整体效果是否符合专业要求
   - 分辨率检查：图片分辨率是否适合展示用途

===回复要求===
1. 必须对每个审核类别的每个子项都给出具体的审核结果
2. 每个子项必须明确标注"通过"或"不通过"
3. 必须说明判断的具体依据
4. 如果不通过，必须说明具体问题
5. 总结时必须列举所有审核类别的结果


请按照以下格式返回审核结果：
{
    "overall_result": {
        "status": "PASS/FAIL",
        "summary": "总体审核结论（必须包含：总体结果、各类别结果统计、通过数量、不通过数量）"
    },
    "detailed_review": {
        "personal_info": {
            "status": "通过/不通过",
            "issues": [],
            "details": {
                "name_check": {
                    "status": "通过/不通过",
                    "details": "具体说明是否发现个人姓名及判断依据"
                },
                "id_check": {
                    "status": "通过/不通过",
                    "details": "具体说明是否发现病人ID及判断依据"
                },
                "photo_check": {
                    "status": "通过/不通过",
                    "details": "具体说明是否发现面部照片及判断依据"
                },
                "contact_check": {
                    "status": "通过/不通过",
                    "details": "具体说明是否发现联系方式及判断依据"
                }
            }
        },
        "content_compliance": {
            "status": "通过/不通过",
            "issues": [],
            "details": {
                "political_check": {
                    "status": "通过/不通过",
                    "details": "具体说明是否有敏感政治内容及判断依据"
                },
                "inappropriate_check": {
                    "status": "通过/不通过",
                    "details": "具体说明是否有不适内容及判断依据"
                },
                "confidential_check": {
                    "status": "通过/不通过",
                    "details": "具体说明是否有商业机密及判断依据"
                },
                "trademark_check": {
                    "status": "通过/不通过",
                    "details": "具体说明是否有未授权商标及判断依据"
                }
            }
        },
        "reference_standard": {
            "status": "通过/不通过",
            "issues": [],
            "details": {
                "pubmed_check": {
                    "status": "通过/不通过",
                    "details": "具体说明引用是否可查证及判断依据"
                },
                "format_check": {
                    "status": "通过/不通过",
                    "details": "具体说明格式是否规范及判断依据"
                },
                "accuracy_check": {
                    "status": "通过/不通过",
                    "details": "具体说明内容是否准确及判断依据"
                },
                "copyright_check": {
                    "status": "通过/不通过",
                    "details": "具体说明是否有版权问题及判断依据"
                }
            }
        },
        "quality_standard": {
            "status": "通过/不通过",
            "issues": [],
            "details": {
                "clarity_check": {
                    "status": "通过/不通过",
                    "details": "具体说明清晰度是否达标及判断依据"
                },
                "watermark_check": {
                    "status": "通过/不通过",
                    "details": "具体说明是否有干扰元素及判断依据"
                },
                "professional_check": {
                    "status": "通过/不通过",
                    "details": "具体说明专业性是否达标及判断依据"
                },
                "resolution_check": {
                    "status": "通过/不通过",
                    "details": "具体说明分辨率是否合适及判断依据"
                }
            }
        }
    },
    "key_findings": [
        "必须列出每个审核类别的主要发现",
        "包括所有通过和不通过的关键点"
    ],
    "recommendations": [
        "如有不通过项，必须提供具体的改进建议",
        "如全部通过，可以提供优化建议"
    ]
}
`
