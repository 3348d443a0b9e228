package coach

import (
	"strings"
	"time"

	"sportconnect-go/internal/lexicon"
)

// DailyPlanFilter 把推荐中的一周训练计划裁剪为当天的条目，用于每日报告。
// 依赖提示词约定的章节标题和以日期开头的条目；格式不符时原样返回。
type DailyPlanFilter struct {
	table *lexicon.Table
	now   func() time.Time
}

// NewDailyPlanFilter 创建过滤器。now 为 nil 时使用 time.Now。
func NewDailyPlanFilter(table *lexicon.Table, now func() time.Time) *DailyPlanFilter {
	if now == nil {
		now = time.Now
	}
	return &DailyPlanFilter{table: table, now: now}
}

// FilterToday 按当前日期过滤。
func (f *DailyPlanFilter) FilterToday(text, lang string) string {
	return f.Filter(text, lang, f.now().Weekday())
}

// Filter 只保留训练计划章节中属于 day 的条目，其余行原样保留。
// day 在词表中没有映射时返回原文。
func (f *DailyPlanFilter) Filter(text, lang string, day time.Weekday) string {
	l := f.table.Lookup(lang)
	prefixes := l.DayPrefixes(day)
	if len(prefixes) == 0 {
		return text
	}

	bullet := f.table.Bullet
	allowed := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		allowed = append(allowed, strings.ToLower(bullet+p))
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	inTraining := false
	for _, line := range lines {
		if title, ok := parseTitleLine(line); ok {
			inTraining = matchesHeader(title, l.TrainingHeaders)
			kept = append(kept, line)
			continue
		}
		if !inTraining {
			kept = append(kept, line)
			continue
		}
		item := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(item, bullet) {
			kept = append(kept, line)
			continue
		}
		if hasAnyPrefix(strings.ToLower(item), allowed) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func matchesHeader(title string, headers []string) bool {
	t := strings.ToLower(title)
	for _, h := range headers {
		if strings.HasPrefix(t, strings.ToLower(h)) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
