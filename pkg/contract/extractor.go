package contract

// Extractor: 按编译期固定的正则模式从文本中提取产出。
// 约束：
// 1) 模式在构造时编译一次，逐行零编译开销；
// 2) 每行仅取最左首个匹配（all 组选择器也只展开该次匹配的各组）；
// 3) 不命中返回 ok=false（正常排除而非错误）；
// 4) 选中组未参与匹配时以空串占位，不中断运行；
// 5) 无跨行状态、无内部并发。
type Extractor interface {
	Extract(text string) (string, bool)
}
