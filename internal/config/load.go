package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"linext/pkg/contract"
)

// Defaults 返回带有安全默认值的 Config 雏形。
// 注意：start/pattern 不设默认（必须由 JSON/ENV/CLI 提供其一）。
func Defaults() Config {
	return Config{
		Input:      "-",
		Output:     "-",
		Sort:       "none",
		SortBy:     "value",
		ChunkLines: 10000,
		Logging:    Logging{Level: "info"},
		Components: Components{Source: "fs", Sink: "fs"},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", contract.ErrConfigInvalid, err)
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 标量以零值表示“未覆盖”；锚点与 Options 子树为整体替换，不做深度合并。
// 开关类布尔只能由覆盖层开启（false 即“未覆盖”）。
func Merge(base, over Config) Config {
	out := base
	if s := strings.TrimSpace(over.Input); s != "" {
		out.Input = s
	}
	if s := strings.TrimSpace(over.Output); s != "" {
		out.Output = s
	}
	if over.Start != nil {
		out.Start = cloneAnchor(over.Start)
	}
	if over.End != nil {
		out.End = cloneEnd(over.End)
	}
	if over.OmitFirst {
		out.OmitFirst = true
	}
	if over.OmitFirstCount != 0 {
		out.OmitFirstCount = over.OmitFirstCount
	}
	if over.OmitLast {
		out.OmitLast = true
	}
	if over.OmitLastCount != 0 {
		out.OmitLastCount = over.OmitLastCount
	}
	if s := strings.TrimSpace(over.Pattern); s != "" {
		out.Pattern = s
	}
	if s := strings.TrimSpace(over.Groups); s != "" {
		out.Groups = s
	}
	if s := strings.TrimSpace(over.LineRange); s != "" {
		out.LineRange = s
	}
	if over.CaseInsensitive {
		out.CaseInsensitive = true
	}
	if over.Unique {
		out.Unique = true
	}
	if s := strings.TrimSpace(over.Sort); s != "" {
		out.Sort = s
	}
	if s := strings.TrimSpace(over.SortBy); s != "" {
		out.SortBy = s
	}
	if over.Counts {
		out.Counts = true
	}
	if over.Workers != 0 {
		out.Workers = over.Workers
	}
	if over.ChunkLines != 0 {
		out.ChunkLines = over.ChunkLines
	}
	if s := strings.TrimSpace(over.Logging.Level); s != "" {
		out.Logging.Level = s
	}
	if s := strings.TrimSpace(over.Logging.Dir); s != "" {
		out.Logging.Dir = s
	}
	if over.Components.Source != "" {
		out.Components.Source = over.Components.Source
	}
	if over.Components.Sink != "" {
		out.Components.Sink = over.Components.Sink
	}
	if len(over.Options.Source) > 0 {
		out.Options.Source = cloneRaw(over.Options.Source)
	}
	if len(over.Options.Sink) > 0 {
		out.Options.Sink = cloneRaw(over.Options.Sink)
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 LINEXT_；数值键解析失败即错误（启动期一次性上报）。
// LINEXT_CONFIG_FILE / LINEXT_CONFIG_JSON 由 cmd 在装载阶段消费，此处跳过。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, "LINEXT_") {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len("LINEXT_") {
			continue
		}
		key := kv[:eq]
		val := kv[eq+1:]
		switch strings.TrimPrefix(key, "LINEXT_") {
		case "INPUT":
			over.Input = strings.TrimSpace(val)
		case "OUTPUT":
			over.Output = strings.TrimSpace(val)
		case "LINE_RANGE":
			over.LineRange = strings.TrimSpace(val)
		case "WORKERS":
			v, err := atoi(val)
			if err != nil {
				return Config{}, fmt.Errorf("%w: LINEXT_WORKERS %q", contract.ErrConfigInvalid, val)
			}
			over.Workers = v
		case "CHUNK_LINES":
			v, err := atoi(val)
			if err != nil {
				return Config{}, fmt.Errorf("%w: LINEXT_CHUNK_LINES %q", contract.ErrConfigInvalid, val)
			}
			over.ChunkLines = v
		case "LOG_LEVEL":
			over.Logging.Level = strings.TrimSpace(val)
		case "LOG_DIR":
			over.Logging.Dir = strings.TrimSpace(val)
		default:
			// CONFIG_FILE / CONFIG_JSON 等由 cmd 消费；其余键忽略
		}
	}
	return over, nil
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func cloneAnchor(in *contract.AnchorSpec) *contract.AnchorSpec {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func cloneEnd(in *contract.EndSpec) *contract.EndSpec {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
