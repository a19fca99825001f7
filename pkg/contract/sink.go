package contract

import "context"

// LineSeq: 输出行的推式序列。实现方依次对每行调用 yield，
// yield 返回错误即停止生产并将该错误作为序列结果返回。
type LineSeq func(yield func(string) error) error

// Sink: 将结果行流式持久化到目标介质（STDOUT / 文件）。
// 约束：
//  1. 单写者，整次运行恰好消费一个序列；
//  2. 流式写入（O(1) 额外内存），每行以 \n 结尾，不改写行内容；
//  3. ctx 取消/超时需尽快返回；
//  4. 任何退出路径（含错误）都须释放句柄；文件目标不得留下半写结果；
//  5. 错误直接上抛（不做重试/回退）。
type Sink interface {
	Consume(ctx context.Context, lines LineSeq) error
}
