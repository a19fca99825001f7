package contract

import "context"

// Source: 输入源抽象（单文件或 STDIN）。
// 约束：
// 1) 流式逐行回调，行序与输入一致；
// 2) Line.Index 自 1 严格递增且连续；
// 3) Text 仅做行尾剥离（\n 与 \r\n），不做解码/业务解析；
// 4) yield 返回错误即停止遍历并原样上抛；
// 5) 不在内部起并发；句柄在返回前释放（含错误路径）。
type Source interface {
	Iterate(ctx context.Context, yield func(Line) error) error
}
