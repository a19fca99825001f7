package aggregate

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
	"unicode/utf8"

	"linext/pkg/contract"
)

// Order: 排序方向。
type Order uint8

const (
	OrderNone Order = iota
	OrderAsc
	OrderDesc
)

func (o Order) String() string {
	switch o {
	case OrderAsc:
		return "asc"
	case OrderDesc:
		return "desc"
	default:
		return "none"
	}
}

// ParseOrder: 解析 ""/"none"/"asc"/"desc"。
func ParseOrder(s string) (Order, error) {
	switch strings.TrimSpace(s) {
	case "", "none":
		return OrderNone, nil
	case "asc":
		return OrderAsc, nil
	case "desc":
		return OrderDesc, nil
	default:
		return OrderNone, fmt.Errorf("%w: sort %q (none|asc|desc)", contract.ErrConfigInvalid, s)
	}
}

// Key: 排序依据。
type Key uint8

const (
	ByValue Key = iota
	ByCount
)

func (k Key) String() string {
	if k == ByCount {
		return "count"
	}
	return "value"
}

// ParseKey: 解析 ""/"value"/"count"。
func ParseKey(s string) (Key, error) {
	switch strings.TrimSpace(s) {
	case "", "value":
		return ByValue, nil
	case "count":
		return ByCount, nil
	default:
		return ByValue, fmt.Errorf("%w: sort_by %q (value|count)", contract.ErrConfigInvalid, s)
	}
}

// Options: 聚合行为（由装配层自类型化配置构造；组合合法性已校验）。
type Options struct {
	Unique   bool
	Sort     Order
	SortBy   Key
	Counts   bool
	CaseFold bool
}

// tally: 计数条目。display 保留首次出现的原始大小写。
type tally struct {
	display string
	n       int
}

// Accumulator: 结果聚合器（单 goroutine 使用，生命周期一次流水线运行）。
// 约束：
//  1. 直通与 unique 即时放行（Add 返回 ok=true），不缓冲；
//  2. counts 或 sort 启用时全量缓冲，Flush 一次性产出；
//  3. unique/counts 的键比较受 CaseFold 影响，输出保留首见大小写；
//  4. counts 输出 "<string> <count>"，串左对齐补至最宽键；
//  5. 值排序在全部值均为 IPv4 地址时按地址数值序，否则按字节序；
//  6. 按计数排序时同计数以键升序打破平局。
type Accumulator struct {
	opts      Options
	streaming bool

	seen   map[string]struct{} // unique 键集合
	vals   []string            // sort 缓冲（非 counts）
	counts map[string]*tally
	order  []string // counts 键的首见顺序
}

var _ contract.Aggregator = (*Accumulator)(nil)

// New 构造聚合器。
func New(o Options) *Accumulator {
	a := &Accumulator{
		opts:      o,
		streaming: !o.Counts && o.Sort == OrderNone,
	}
	if o.Unique {
		a.seen = make(map[string]struct{})
	}
	if o.Counts {
		a.counts = make(map[string]*tally)
	}
	return a
}

// Streaming 报告聚合是否即时放行（驱动层据此决定何时写汇）。
func (a *Accumulator) Streaming() bool { return a.streaming }

func (a *Accumulator) key(s string) string {
	if a.opts.CaseFold {
		return strings.ToLower(s)
	}
	return s
}

// Add 接收一个抽取结果；ok=true 时 out 立即写出，否则结果已并入缓冲。
func (a *Accumulator) Add(s string) (out string, ok bool) {
	if a.opts.Counts {
		k := a.key(s)
		if t := a.counts[k]; t != nil {
			t.n++
		} else {
			a.counts[k] = &tally{display: s, n: 1}
			a.order = append(a.order, k)
		}
		return "", false
	}
	if a.opts.Unique {
		k := a.key(s)
		if _, dup := a.seen[k]; dup {
			return "", false
		}
		a.seen[k] = struct{}{}
	}
	if a.opts.Sort != OrderNone {
		a.vals = append(a.vals, s)
		return "", false
	}
	return s, true
}

// Flush 产出缓冲内容（流式模式下为空操作）。仅在输入耗尽后调用一次。
func (a *Accumulator) Flush(yield func(string) error) error {
	if a.opts.Counts {
		return a.flushCounts(yield)
	}
	if a.opts.Sort != OrderNone {
		sortValues(a.vals, a.opts.Sort)
		for _, v := range a.vals {
			if err := yield(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Accumulator) flushCounts(yield func(string) error) error {
	keys := a.order
	if a.opts.Sort != OrderNone {
		if a.opts.SortBy == ByCount {
			asc := a.opts.Sort == OrderAsc
			sort.Slice(keys, func(i, j int) bool {
				ci, cj := a.counts[keys[i]].n, a.counts[keys[j]].n
				if ci != cj {
					if asc {
						return ci < cj
					}
					return ci > cj
				}
				return keys[i] < keys[j]
			})
		} else {
			sortValues(keys, a.opts.Sort)
		}
	}
	width := 0
	for _, k := range keys {
		if n := utf8.RuneCountInString(a.counts[k].display); n > width {
			width = n
		}
	}
	for _, k := range keys {
		t := a.counts[k]
		if err := yield(fmt.Sprintf("%-*s %d", width, t.display, t.n)); err != nil {
			return err
		}
	}
	return nil
}

// sortValues 就地排序。全部值可解析为 IPv4 时按地址数值序。
func sortValues(vals []string, o Order) {
	if len(vals) < 2 {
		return
	}
	if addrs, ok := parseAllIPv4(vals); ok {
		sort.Slice(vals, func(i, j int) bool {
			c := addrs[vals[i]].Compare(addrs[vals[j]])
			if o == OrderDesc {
				return c > 0
			}
			return c < 0
		})
		return
	}
	if o == OrderDesc {
		sort.Sort(sort.Reverse(sort.StringSlice(vals)))
		return
	}
	sort.Strings(vals)
}

func parseAllIPv4(vals []string) (map[string]netip.Addr, bool) {
	m := make(map[string]netip.Addr, len(vals))
	for _, v := range vals {
		if _, done := m[v]; done {
			continue
		}
		a, err := netip.ParseAddr(v)
		if err != nil || !a.Is4() {
			return nil, false
		}
		m[v] = a
	}
	return m, true
}
