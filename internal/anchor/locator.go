package anchor

import (
	"strings"
	"unicode/utf8"

	"linext/pkg/contract"
)

// Locator: 字面锚定位器（无并发状态，可跨 goroutine 只读共享）。
// 约束：
//  1. 起始锚 At=all 时匹配区自行首（零长锚文本），不扫描、不过滤；
//  2. 起始锚 At=n 时取第 n 次非重叠出现，不足 n 次该行排除；
//  3. 结束锚自起始锚文本之后扫描第 m 次非重叠出现，未出现该行排除；
//  4. 匹配区两端含锚 token 原文，删除策略（TrimSpec）在返回前施加；
//  5. 大小写不敏感仅折叠 ASCII 字母（字节偏移保持精确）。
type Locator struct {
	start     string // 起始锚 token 原文
	startScan string // 扫描用形态（不敏感时为 ASCII 小写）
	startAt   contract.Occurrence

	end     string
	endScan string
	endAt   contract.Occurrence
	hasEnd  bool // 结束锚参与截断（token 非空且 At 非 all）

	trim        contract.TrimSpec
	insensitive bool
	startRunes  int // 删除默认量（字符数）
	endRunes    int
}

var _ contract.Locator = (*Locator)(nil)

// New 构造定位器。end 为 nil 或 At=all 时匹配区延伸至行尾；
// 配置组合的合法性（如 omit_last 依赖 end）由装配前的校验保证。
func New(start contract.AnchorSpec, end *contract.EndSpec, trim contract.TrimSpec, insensitive bool) *Locator {
	l := &Locator{
		start:       start.Token,
		startScan:   start.Token,
		startAt:     start.At,
		trim:        trim,
		insensitive: insensitive,
		startRunes:  utf8.RuneCountInString(start.Token),
	}
	if insensitive {
		l.startScan = asciiLower(start.Token)
	}
	if end != nil && end.Token != "" {
		l.end = end.Token
		l.endScan = end.Token
		if insensitive {
			l.endScan = asciiLower(end.Token)
		}
		l.endAt = end.At
		l.endRunes = utf8.RuneCountInString(end.Token)
		// At=all 等价于缺省：不截断，仅供删除默认量使用
		l.hasEnd = !end.At.IsAll()
	}
	return l
}

// Locate 在单行内定位匹配区并施加删除；ok=false 表示该行排除（非错误）。
func (l *Locator) Locate(line string) (string, bool) {
	startPos, afterStart := 0, 0
	startLen := 0
	if !l.startAt.IsAll() {
		i := l.nth(line, l.startScan, 0, l.startAt.N())
		if i < 0 {
			return "", false
		}
		startPos = i
		afterStart = i + len(l.start)
		startLen = l.startRunes
	}
	endExcl := len(line)
	if l.hasEnd {
		j := l.nth(line, l.endScan, afterStart, l.endAt.N())
		if j < 0 {
			return "", false
		}
		endExcl = j + len(l.end)
	}
	region := line[startPos:endExcl]
	if l.trim.Zero() {
		return region, true
	}
	return l.trim.Apply(region, startLen, l.endRunes), true
}

// nth 返回 tok 在 line 中自 from 起第 n 次非重叠出现的字节偏移；不足 n 次返回 -1。
// 步进按 token 长度（非重叠），两种大小写模式统一。
func (l *Locator) nth(line, tok string, from, n int) int {
	pos := from
	for k := 1; ; k++ {
		i := l.index(line, tok, pos)
		if i < 0 {
			return -1
		}
		if k == n {
			return i
		}
		pos = i + len(tok)
	}
}

func (l *Locator) index(line, tok string, from int) int {
	if from > len(line) {
		return -1
	}
	if l.insensitive {
		return foldIndex(line, tok, from)
	}
	i := strings.Index(line[from:], tok)
	if i < 0 {
		return -1
	}
	return from + i
}

// foldIndex 在 line[from:] 中查找 tokLower 的首次出现（ASCII 折叠），返回绝对字节偏移。
func foldIndex(line, tokLower string, from int) int {
	n := len(tokLower)
	if n == 0 {
		return from
	}
	for i := from; i+n <= len(line); i++ {
		if foldEqualAt(line, i, tokLower) {
			return i
		}
	}
	return -1
}

func foldEqualAt(line string, i int, tokLower string) bool {
	for j := 0; j < len(tokLower); j++ {
		c := line[i+j]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != tokLower[j] {
			return false
		}
	}
	return true
}

func asciiLower(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
