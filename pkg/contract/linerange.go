package contract

import (
	"fmt"
	"strconv"
	"strings"
)

// LineRange: 行号选择区（闭区间，1 起始）。
// 形态与字段映射：
//
//	""    -> 零值（不限制）
//	"N"   -> Lo=N, Hi=N
//	"N-M" -> Lo=N, Hi=M（M < N 合法，选中为空）
//	"N-$" -> Lo=N, Hi=0（0 表示无上界）
//	"$"   -> Tail=1
//	"$-K" -> Tail=K（最后 K 行）
//
// 约束：
// - 绝对形态在流式遍历中可提前终止（越过上界即停）；
// - 后缀形态（Tail > 0）需读尽输入并以容量 Tail 的环形缓冲保留尾部；
// - 不做 M < N 时的交换（语义即“空选”）。
type LineRange struct {
	Lo   int64
	Hi   int64
	Tail int64
}

// IsZero 判定是否不限制。
func (r LineRange) IsZero() bool { return r.Lo == 0 && r.Hi == 0 && r.Tail == 0 }

// IsSuffix 判定是否为后缀形态（$ / $-K）。
func (r LineRange) IsSuffix() bool { return r.Tail > 0 }

func (r LineRange) String() string {
	switch {
	case r.Tail == 1:
		return "$"
	case r.Tail > 1:
		return "$-" + strconv.FormatInt(r.Tail, 10)
	case r.Lo == 0 && r.Hi == 0:
		return ""
	case r.Hi == 0:
		return strconv.FormatInt(r.Lo, 10) + "-$"
	case r.Lo == r.Hi:
		return strconv.FormatInt(r.Lo, 10)
	default:
		return strconv.FormatInt(r.Lo, 10) + "-" + strconv.FormatInt(r.Hi, 10)
	}
}

// ParseLineRange 解析行区间表达式；非法表达式返回 ErrRangeInvalid。
func ParseLineRange(s string) (LineRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LineRange{}, nil
	}
	if s == "$" {
		return LineRange{Tail: 1}, nil
	}
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		n, err := parseLineNum(lo)
		if err != nil {
			return LineRange{}, fmt.Errorf("%w: %q", ErrRangeInvalid, s)
		}
		return LineRange{Lo: n, Hi: n}, nil
	}
	switch {
	case lo == "$":
		k, err := parseLineNum(hi)
		if err != nil {
			return LineRange{}, fmt.Errorf("%w: %q", ErrRangeInvalid, s)
		}
		return LineRange{Tail: k}, nil
	case hi == "$":
		n, err := parseLineNum(lo)
		if err != nil {
			return LineRange{}, fmt.Errorf("%w: %q", ErrRangeInvalid, s)
		}
		return LineRange{Lo: n}, nil
	default:
		n, err := parseLineNum(lo)
		if err != nil {
			return LineRange{}, fmt.Errorf("%w: %q", ErrRangeInvalid, s)
		}
		m, err := parseLineNum(hi)
		if err != nil {
			return LineRange{}, fmt.Errorf("%w: %q", ErrRangeInvalid, s)
		}
		return LineRange{Lo: n, Hi: m}, nil
	}
}

func parseLineNum(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("line number %q", s)
	}
	return n, nil
}
