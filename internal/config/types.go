package config

import (
	"encoding/json"

	"linext/pkg/contract"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// 输入/输出路径（"-" 为 STDIN/STDOUT）。
	Input  string `json:"input"`
	Output string `json:"output"`

	// 锚点定位（可选）。start.at 零值为 all；end 省略即“至行尾”。
	Start *contract.AnchorSpec `json:"start"`
	End   *contract.EndSpec    `json:"end"`

	// 删除策略。计数 0 表示按对应锚点 token 长度。
	OmitFirst      bool `json:"omit_first"`
	OmitFirstCount int  `json:"omit_first_count"`
	OmitLast       bool `json:"omit_last"`
	OmitLastCount  int  `json:"omit_last_count"`

	// 正则抽取（可选）。groups: ""（整行）、"N"、"N M ..."、"all"。
	Pattern string `json:"pattern"`
	Groups  string `json:"groups"`

	// 行区间表达式: ""、N、N-M、N-$、$、$-K（作用于输入行号）。
	LineRange string `json:"line_range"`

	// 大小写不敏感：锚点扫描、正则与聚合键统一生效。
	CaseInsensitive bool `json:"case_insensitive"`

	// 聚合级。sort: none|asc|desc；sort_by: value|count。
	Unique bool   `json:"unique"`
	Sort   string `json:"sort"`
	SortBy string `json:"sort_by"`
	Counts bool   `json:"counts"`

	// 并行分片（仅纯正则流水）。0 = 顺序执行。
	Workers    int `json:"workers"`
	ChunkLines int `json:"chunk_lines"`

	Logging Logging `json:"logging"`

	// I/O 组件名选择与各组件原样 Options 子树。
	Components Components `json:"components"`
	Options    Options    `json:"options"`
}

// Logging: 日志等级与目录。目录为空即不落盘（stdout 必须保持纯净）。
type Logging struct {
	Level string `json:"level"`
	Dir   string `json:"dir"`
}

// Components: I/O 组件名选择（注册表中的实现名）。
type Components struct {
	Source string `json:"source"`
	Sink   string `json:"sink"`
}

// Options: 各 I/O 组件的原样 JSON Options。
type Options struct {
	Source json.RawMessage `json:"source"`
	Sink   json.RawMessage `json:"sink"`
}
