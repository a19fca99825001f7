package contract

// Locator: 按字面锚点在单行内定位子串。
// 约束：
// 1) 纯函数式逐行调用，无跨行状态、无内部并发；
// 2) 序号按从左到右、不重叠的单次前向扫描计数；
// 3) 不命中（第 n 次起始锚不存在、结束锚不存在）返回 ok=false，
//    属正常排除而非错误，绝不中断运行；
// 4) 返回的子串已施加删除策略（TrimSpec）。
type Locator interface {
	Locate(line string) (string, bool)
}
