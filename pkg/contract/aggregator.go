package contract

// Aggregator: 汇聚逐行产出并按配置做去重/排序/计数。
// 约束：
// 1) Add 为逐行推入：返回 (s, true) 表示该行可立即下发（透传/去重模式保持流式），
//    返回 (_, false) 表示暂存（排序/计数模式需读尽输入）；
// 2) Flush 在输入耗尽后调用一次，按最终顺序下发暂存结果；
//    yield 返回错误即停止并原样上抛；
// 3) 下发顺序契约：无排序时保持到达序；排序语义见实现 Options；
// 4) 单写者调用，无内部并发。
type Aggregator interface {
	Add(s string) (string, bool)
	Flush(yield func(string) error) error
}
