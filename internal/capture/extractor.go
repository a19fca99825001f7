package capture

import (
	"fmt"
	"regexp"
	"strings"

	"linext/pkg/contract"
)

// Extractor: 正则抽取器。模式在构造期编译一次，Extract 无每行重编译。
// 约束：
//  1. 每行仅做一次最左匹配（非全局）；未命中该行排除（非错误）；
//  2. 整行变体：命中即原样输出输入文本；
//  3. 组序列变体：按请求顺序空格连接；未参与匹配的组贡献空串；
//  4. 全部组变体：按声明序空格连接；模式无捕获组时输出整个匹配。
type Extractor struct {
	re  *regexp.Regexp
	sel contract.GroupSelector
	// 预判一次，Extract 热路径零分支歧义
	wholeLine bool
	allGroups bool
	idx       []int
	ngroups   int
}

var _ contract.Extractor = (*Extractor)(nil)

// New 编译模式并核对组序号。大小写不敏感通过 (?i) 前缀实现（编译期一次）。
// 组序号超出模式组数在此返回配置错误，而非逐行失败。
func New(pattern string, sel contract.GroupSelector, insensitive bool) (*Extractor, error) {
	p := pattern
	if insensitive {
		p = "(?i)" + p
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrPatternInvalid, err)
	}
	ng := re.NumSubexp()
	if m := sel.Max(); m > ng {
		return nil, fmt.Errorf("%w: group %d exceeds pattern group count %d", contract.ErrConfigInvalid, m, ng)
	}
	return &Extractor{
		re:        re,
		sel:       sel,
		wholeLine: sel.IsWholeLine(),
		allGroups: sel.IsAll(),
		idx:       sel.Indices(),
		ngroups:   ng,
	}, nil
}

// Extract 对单个输入执行一次匹配；ok=false 表示未命中（该行排除）。
func (e *Extractor) Extract(text string) (string, bool) {
	if e.wholeLine {
		// 行过滤：不取子匹配，省一次切片分配
		if e.re.MatchString(text) {
			return text, true
		}
		return "", false
	}
	m := e.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if e.allGroups {
		if e.ngroups == 0 {
			return m[0], true
		}
		return strings.Join(m[1:], " "), true
	}
	if len(e.idx) == 1 {
		return m[e.idx[0]], true
	}
	parts := make([]string, len(e.idx))
	for i, n := range e.idx {
		parts[i] = m[n]
	}
	return strings.Join(parts, " "), true
}
