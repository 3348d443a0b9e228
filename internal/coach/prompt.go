package coach

import (
	"fmt"
	"strconv"
	"strings"

	"sportconnect-go/internal/lexicon"
	"sportconnect-go/internal/model"
)

// PromptBuilder 把用户档案转换成要求模型按四个章节输出的提示词。
// 章节标题来自词表，与兜底回答和每日计划过滤使用的标题一致。
type PromptBuilder struct {
	table *lexicon.Table
}

func NewPromptBuilder(table *lexicon.Table) *PromptBuilder {
	return &PromptBuilder{table: table}
}

// Build 生成提示词。缺失的可选字段不输出对应行。
func (b *PromptBuilder) Build(p model.Profile, lang string) string {
	l := b.table.Lookup(lang)
	tpl := l.Prompt

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = tpl.DefaultName
	}

	parts := []string{fmt.Sprintf(tpl.Header, name)}
	if p.Age != nil {
		parts = append(parts, fmt.Sprintf(tpl.Age, strconv.Itoa(*p.Age)))
	}
	if p.WeightKg != nil {
		parts = append(parts, fmt.Sprintf(tpl.Weight, formatNumber(*p.WeightKg)))
	}
	if p.HeightCm != nil {
		parts = append(parts, fmt.Sprintf(tpl.Height, formatNumber(*p.HeightCm)))
	}
	if goal := strings.TrimSpace(p.MainGoal); goal != "" {
		parts = append(parts, fmt.Sprintf(tpl.Goal, goal))
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(tpl.Intro)
	sb.WriteString("\n\n")
	for i, kind := range SectionKinds {
		fmt.Fprintf(&sb, "%d) %s\n", i+1, BoldTitle(kind.Title(l)))
		sb.WriteString(b.table.Bullet)
		sb.WriteString(kind.pick(tpl.Hints))
		sb.WriteString("\n\n")
	}
	sb.WriteString(tpl.Rules)
	parts = append(parts, sb.String())

	return strings.Join(parts, "\n")
}

// formatNumber 去掉多余的小数位：64 -> "64"，64.5 -> "64.5"。
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
