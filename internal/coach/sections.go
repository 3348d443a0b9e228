// Package coach 实现教练流程中与存储无关的部分：领域过滤、提示词构建、
// 模型网关、兜底回答和每日计划过滤。
package coach

import (
	"strings"

	"sportconnect-go/internal/lexicon"
)

// SectionKind 标识推荐回答中的四个固定章节。顺序即输出顺序。
type SectionKind int

const (
	SectionPlan SectionKind = iota
	SectionTraining
	SectionNutrition
	SectionRecovery
)

// SectionKinds 按输出顺序列出全部章节。
var SectionKinds = []SectionKind{SectionPlan, SectionTraining, SectionNutrition, SectionRecovery}

func (k SectionKind) String() string {
	switch k {
	case SectionPlan:
		return "plan"
	case SectionTraining:
		return "training"
	case SectionNutrition:
		return "nutrition"
	case SectionRecovery:
		return "recovery"
	default:
		return "unknown"
	}
}

// pick 从按章节组织的文案中取出 k 对应的一项。
func (k SectionKind) pick(s lexicon.Sections) string {
	switch k {
	case SectionPlan:
		return s.Plan
	case SectionTraining:
		return s.Training
	case SectionNutrition:
		return s.Nutrition
	case SectionRecovery:
		return s.Recovery
	default:
		return ""
	}
}

// Title 返回章节在指定语言下的标题（不含 ** 标记）。
func (k SectionKind) Title(lang *lexicon.Language) string {
	return k.pick(lang.Sections)
}

// BoldTitle 返回 Markdown 加粗后的标题行。
func BoldTitle(title string) string {
	return "**" + title + "**"
}

// parseTitleLine 识别单独成行的加粗标题，允许前置 "#" 或 "2)" 这样的编号。
func parseTitleLine(line string) (string, bool) {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "# ")
	if i := strings.Index(s, ") "); i > 0 && i <= 3 && isDigits(s[:i]) {
		s = s[i+2:]
	}
	if len(s) < 5 || !strings.HasPrefix(s, "**") || !strings.HasSuffix(s, "**") {
		return "", false
	}
	return strings.TrimSpace(s[2 : len(s)-2]), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
