package config

import "encoding/json"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - STDIN → STDOUT；
// - 示例正则带两个捕获组（防火墙日志的 SRC/DST 提取），groups=all；
// - Options 覆盖全部键（值为安全中性默认），确保键名可被发现。
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	cfg.Pattern = `SRC=(\S+)\s+DST=(\S+)`
	cfg.Groups = "all"
	cfg.Logging = Logging{Level: "info", Dir: ""}
	cfg.Options.Source = json.RawMessage(`{
  "path": "",
  "buf_size": 65536
}`)
	cfg.Options.Sink = json.RawMessage(`{
  "path": "",
  "atomic": true,
  "perm_file": 0,
  "buf_size": 65536
}`)
	return cfg
}
