// Package lexicon 保存按语言组织的静态词表：领域关键词、章节标题、
// 每日训练的日期前缀、提示词与报告文案。
// 领域过滤、提示词构建和每日计划过滤共用同一张表。
package lexicon

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed default.yaml
var defaultYAML []byte

// Sections 按固定顺序保存四个章节的文本。
type Sections struct {
	Plan      string `mapstructure:"plan"`
	Training  string `mapstructure:"training"`
	Nutrition string `mapstructure:"nutrition"`
	Recovery  string `mapstructure:"recovery"`
}

// Prompt 是构建推荐提示词用到的文案，格式串中的 %s 由档案字段替换。
type Prompt struct {
	DefaultName string   `mapstructure:"default_name"`
	Header      string   `mapstructure:"header"`
	Age         string   `mapstructure:"age"`
	Weight      string   `mapstructure:"weight"`
	Height      string   `mapstructure:"height"`
	Goal        string   `mapstructure:"goal"`
	Intro       string   `mapstructure:"intro"`
	Hints       Sections `mapstructure:"hints"`
	Rules       string   `mapstructure:"rules"`
}

// Report 是每日报告邮件的文案。
type Report struct {
	Subject        string `mapstructure:"subject"`
	Greeting       string `mapstructure:"greeting"`
	GreetingNoName string `mapstructure:"greeting_no_name"`
	Intro          string `mapstructure:"intro"`
	Closing        string `mapstructure:"closing"`
	Signature      string `mapstructure:"signature"`
}

// Language 是一种界面语言的完整文案。
type Language struct {
	Code            string              `mapstructure:"code"`
	Refusal         string              `mapstructure:"refusal"`
	Sections        Sections            `mapstructure:"sections"`
	TrainingHeaders []string            `mapstructure:"training_headers"`
	Days            map[string][]string `mapstructure:"days"`
	Prompt          Prompt              `mapstructure:"prompt"`
	Report          Report              `mapstructure:"report"`
}

// DayPrefixes 返回某一天训练计划中应保留的条目前缀（不含项目符号）。
// 没有映射的日期返回 nil。
func (l *Language) DayPrefixes(day time.Weekday) []string {
	return l.Days[strings.ToLower(day.String())]
}

// Table 是启动时加载一次的词表。
type Table struct {
	DefaultLang string              `mapstructure:"default_lang"`
	Bullet      string              `mapstructure:"bullet"`
	ShortMaxLen int                 `mapstructure:"short_max_len"`
	Greetings   []string            `mapstructure:"greetings"`
	ShortStems  []string            `mapstructure:"short_stems"`
	Keywords    map[string][]string `mapstructure:"keywords"`
	Languages   []Language          `mapstructure:"languages"`
}

// Default 返回内置词表。内置 YAML 随二进制一起发布，解析失败属于编程错误。
func Default() *Table {
	t, err := parse(defaultYAML)
	if err != nil {
		panic(fmt.Errorf("内置词表无效: %w", err))
	}
	return t
}

// Load 从指定路径加载词表；path 为空时返回内置词表。
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取词表文件失败: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Table, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("解析词表失败: %w", err)
	}
	var t Table
	if err := v.Unmarshal(&t); err != nil {
		return nil, fmt.Errorf("无法将词表解析到结构体中: %w", err)
	}
	t.normalize()
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// normalize 统一小写并去除空白，匹配时输入也做同样处理。
func (t *Table) normalize() {
	t.DefaultLang = strings.ToLower(strings.TrimSpace(t.DefaultLang))
	t.Greetings = normalizeWords(t.Greetings)
	t.ShortStems = normalizeWords(t.ShortStems)
	for code, words := range t.Keywords {
		t.Keywords[code] = normalizeWords(words)
	}
	for i := range t.Languages {
		t.Languages[i].Code = strings.ToLower(strings.TrimSpace(t.Languages[i].Code))
	}
}

func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func (t *Table) validate() error {
	if t.Bullet == "" {
		return errors.New("词表缺少 bullet")
	}
	if len(t.Languages) == 0 {
		return errors.New("词表至少需要一种语言")
	}
	found := false
	for _, l := range t.Languages {
		if l.Code == "" {
			return errors.New("词表中存在未设置 code 的语言")
		}
		s := l.Sections
		if s.Plan == "" || s.Training == "" || s.Nutrition == "" || s.Recovery == "" {
			return fmt.Errorf("语言 %q 的章节标题不完整", l.Code)
		}
		if len(l.TrainingHeaders) == 0 {
			return fmt.Errorf("语言 %q 缺少 training_headers", l.Code)
		}
		if l.Code == t.DefaultLang {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("默认语言 %q 不在语言列表中", t.DefaultLang)
	}
	return nil
}

// Lookup 按前缀匹配语言代码（"fr-FR" 匹配 "fr"），匹配不到时返回默认语言。
func (t *Table) Lookup(lang string) *Language {
	lang = strings.ToLower(strings.TrimSpace(lang))
	var fallback *Language
	for i := range t.Languages {
		l := &t.Languages[i]
		if lang != "" && strings.HasPrefix(lang, l.Code) {
			return l
		}
		if l.Code == t.DefaultLang {
			fallback = l
		}
	}
	return fallback
}

// AllKeywords 返回所有语言关键词的并集，保持首次出现的顺序。
func (t *Table) AllKeywords() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, code := range t.keywordLangs() {
		for _, w := range t.Keywords[code] {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

// keywordLangs 先按 Languages 的顺序，再按剩余关键词语言的字典序返回，保证结果稳定。
func (t *Table) keywordLangs() []string {
	var codes []string
	used := make(map[string]bool)
	for _, l := range t.Languages {
		if _, ok := t.Keywords[l.Code]; ok {
			codes = append(codes, l.Code)
			used[l.Code] = true
		}
	}
	var rest []string
	for code := range t.Keywords {
		if !used[code] {
			rest = append(rest, code)
		}
	}
	sort.Strings(rest)
	return append(codes, rest...)
}
