package coach

import (
	"strings"
	"unicode/utf8"

	"sportconnect-go/internal/lexicon"
)

// DomainFilter 判断一条聊天消息是否属于健康、运动、营养和身心健康领域。
// 无副作用，只依赖输入文本和启动时加载的词表。
type DomainFilter struct {
	greetings   map[string]struct{}
	shortStems  []string
	shortMaxLen int
	keywords    []string
}

// NewDomainFilter 基于词表创建过滤器。
func NewDomainFilter(table *lexicon.Table) *DomainFilter {
	greetings := make(map[string]struct{}, len(table.Greetings))
	for _, g := range table.Greetings {
		greetings[g] = struct{}{}
	}
	return &DomainFilter{
		greetings:   greetings,
		shortStems:  table.ShortStems,
		shortMaxLen: table.ShortMaxLen,
		keywords:    table.AllKeywords(),
	}
}

// IsAllowed 报告 text 是否在领域内。空消息返回 false。
func (f *DomainFilter) IsAllowed(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))

	// 问候语直接放行
	if _, ok := f.greetings[t]; ok {
		return true
	}

	// 很短的消息，例如 "rutina gym"
	if utf8.RuneCountInString(t) <= f.shortMaxLen && containsAny(t, f.shortStems) {
		return true
	}

	return containsAny(t, f.keywords)
}

func containsAny(s string, words []string) bool {
	if s == "" {
		return false
	}
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
