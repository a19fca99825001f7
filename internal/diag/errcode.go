package diag

import (
	"context"
	"errors"
	"os"

	"linext/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志汇总与终端提示，与退出码解耦（退出码由失败阶段决定）。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeConfig    Code = "config"
	CodePattern   Code = "pattern"
	CodeRange     Code = "range"
	CodeInvariant Code = "invariant"
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类。
// 说明：仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, contract.ErrPatternInvalid) {
		return CodePattern
	}
	if errors.Is(err, contract.ErrRangeInvalid) {
		return CodeRange
	}
	if errors.Is(err, contract.ErrConfigInvalid) {
		return CodeConfig
	}
	if errors.Is(err, contract.ErrInvariantViolation) {
		return CodeInvariant
	}
	// I/O：路径类哨兵与标准库路径错误
	if errors.Is(err, contract.ErrPathInvalid) {
		return CodeIO
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}
