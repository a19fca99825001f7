package diag

// 最小指标挂点（无导出实现，默认 no-op）。
// 单次运行的 CLI 没有抓取面；保留挂点以便嵌入方替换实现：
// - op_total{comp,stage,result}
// - error_total{comp,code}
// - lines_total{comp,kind}

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	// 保持最小 no-op；嵌入方可通过替换实现导出。
}

// IncError 按分类累加错误计数。
func IncError(comp string, code Code) {
	// 保持最小 no-op；嵌入方可通过替换实现导出。
}

// AddLines 累加行计数（kind=read|emitted）。
func AddLines(comp, kind string, n int64) {
	// 保持最小 no-op；嵌入方可通过替换实现导出。
}
