package contract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Line: 输入流中的一行。
// 约束：
// - Index 自 1 严格递增且连续；
// - Text 不含行尾换行（CRLF/LF 已剥离），其余字节原样保留。
type Line struct {
	Index int64
	Text  string
}

// Occurrence: 锚点序号的带标签变体：第 n 次（n≥1）或 all。
// 零值即 all（不按序号定位；对起始锚意为“自行首”，对结束锚意为“至行尾”）。
type Occurrence struct {
	n int
}

// OccurrenceAll: all 变体（等同零值，导出以便显式表达意图）。
var OccurrenceAll = Occurrence{}

// Nth: 构造第 n 次变体；n < 1 返回 ErrConfigInvalid。
func Nth(n int) (Occurrence, error) {
	if n < 1 {
		return Occurrence{}, fmt.Errorf("%w: occurrence must be >= 1, got %d", ErrConfigInvalid, n)
	}
	return Occurrence{n: n}, nil
}

// IsAll 判定是否为 all 变体。
func (o Occurrence) IsAll() bool { return o.n == 0 }

// N 返回序号；all 变体返回 0。
func (o Occurrence) N() int { return o.n }

func (o Occurrence) String() string {
	if o.n == 0 {
		return "all"
	}
	return strconv.Itoa(o.n)
}

// ParseOccurrence: 解析 "all" 或正整数文本。空串视为 all。
func ParseOccurrence(s string) (Occurrence, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return Occurrence{}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Occurrence{}, fmt.Errorf("%w: occurrence %q", ErrConfigInvalid, s)
	}
	return Nth(n)
}

// UnmarshalJSON 接受 "all"、正整数或其字符串形式。
func (o *Occurrence) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*o = Occurrence{}
		return nil
	case string:
		p, err := ParseOccurrence(t)
		if err != nil {
			return err
		}
		*o = p
		return nil
	case float64:
		if t != float64(int(t)) {
			return fmt.Errorf("%w: occurrence %v", ErrConfigInvalid, t)
		}
		p, err := Nth(int(t))
		if err != nil {
			return err
		}
		*o = p
		return nil
	default:
		return fmt.Errorf("%w: occurrence %s", ErrConfigInvalid, string(b))
	}
}

func (o Occurrence) MarshalJSON() ([]byte, error) {
	if o.n == 0 {
		return []byte(`"all"`), nil
	}
	return []byte(strconv.Itoa(o.n)), nil
}

// AnchorSpec: 起始锚（字面 token + 序号）。
// At 为 all 时匹配区自行首（偏移 0、零长锚文本），token 不要求出现在行内。
type AnchorSpec struct {
	Token string     `json:"token"`
	At    Occurrence `json:"at"`
}

// EndSpec: 结束锚。At 为 all 时不截断（至行尾），与缺省等价。
type EndSpec struct {
	Token string     `json:"token"`
	At    Occurrence `json:"at"`
}

// TrimSpec: 对锚定区两端的删除策略。
// 约束：
// - 计数单位为字符（rune）；0 表示取相应锚 token 的字符长度；
// - 两端独立生效，互不影响对方的删除量；
// - 删除量相遇或越界时结果为空串，不报错。
type TrimSpec struct {
	OmitFirst  bool `json:"omit_first"`
	OmitFirstN int  `json:"omit_first_count"`
	OmitLast   bool `json:"omit_last"`
	OmitLastN  int  `json:"omit_last_count"`
}

// Zero 判定是否无任何删除。
func (t TrimSpec) Zero() bool { return !t.OmitFirst && !t.OmitLast }

// Apply 对锚定区 region 施加删除。startLen/endLen 为起止锚 token 的字符长度
//（起始锚为 all 时传 0）。
func (t TrimSpec) Apply(region string, startLen, endLen int) string {
	if t.OmitFirst {
		n := t.OmitFirstN
		if n <= 0 {
			n = startLen
		}
		region = dropLeading(region, n)
	}
	if t.OmitLast {
		n := t.OmitLastN
		if n <= 0 {
			n = endLen
		}
		region = dropTrailing(region, n)
	}
	return region
}

func dropLeading(s string, n int) string {
	for i := 0; i < n; i++ {
		if s == "" {
			return ""
		}
		_, size := utf8.DecodeRuneInString(s)
		s = s[size:]
	}
	return s
}

func dropTrailing(s string, n int) string {
	for i := 0; i < n; i++ {
		if s == "" {
			return ""
		}
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}

// GroupSelector: 正则产出的带标签变体：整行 / 指定组序列 / 全部组。
// 零值为整行（模式仅作行过滤，命中即原样输出输入文本）。
type GroupSelector struct {
	all bool
	idx []int
}

// GroupsAll: 全部捕获组（按声明序，空格连接）。
var GroupsAll = GroupSelector{all: true}

// Groups 构造指定组序列变体；序号 1 起，按给定顺序输出。
func Groups(idx ...int) (GroupSelector, error) {
	if len(idx) == 0 {
		return GroupSelector{}, fmt.Errorf("%w: empty group list", ErrConfigInvalid)
	}
	for _, n := range idx {
		if n < 1 {
			return GroupSelector{}, fmt.Errorf("%w: group index must be >= 1, got %d", ErrConfigInvalid, n)
		}
	}
	return GroupSelector{idx: append([]int(nil), idx...)}, nil
}

// ParseGroupSelector: 解析 ""（整行）、"all" 或空白分隔的正整数序列。
func ParseGroupSelector(s string) (GroupSelector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return GroupSelector{}, nil
	}
	if s == "all" {
		return GroupsAll, nil
	}
	fields := strings.Fields(s)
	idx := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return GroupSelector{}, fmt.Errorf("%w: group selector %q", ErrConfigInvalid, s)
		}
		idx = append(idx, n)
	}
	return Groups(idx...)
}

// IsWholeLine 判定是否为整行变体。
func (g GroupSelector) IsWholeLine() bool { return !g.all && len(g.idx) == 0 }

// IsAll 判定是否为全部组变体。
func (g GroupSelector) IsAll() bool { return g.all }

// Indices 返回指定组序列（整行/全部组变体返回 nil）。
func (g GroupSelector) Indices() []int { return g.idx }

// Max 返回引用的最大组序号（用于装配期与模式组数核对）；无序号引用返回 0。
func (g GroupSelector) Max() int {
	m := 0
	for _, n := range g.idx {
		if n > m {
			m = n
		}
	}
	return m
}

func (g GroupSelector) String() string {
	if g.all {
		return "all"
	}
	if len(g.idx) == 0 {
		return ""
	}
	parts := make([]string, len(g.idx))
	for i, n := range g.idx {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}
