package contract

import "errors"

// 致命错误的最小分类（启动期一次性上报；逐行不命中不属于错误，见各接口契约）。
var (
	// ErrConfigInvalid: 选项组合无效（如 omit_last 而无 end；start 与 pattern 均缺省）。
	ErrConfigInvalid = errors.New("config invalid")
	// ErrPatternInvalid: 正则表达式编译失败。
	ErrPatternInvalid = errors.New("pattern invalid")
	// ErrRangeInvalid: 行区间表达式无法解析。
	ErrRangeInvalid = errors.New("line range invalid")
	// ErrPathInvalid: 输入/输出路径无效（空白、目录等）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
)
