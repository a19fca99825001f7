package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"linext/internal/aggregate"
	"linext/internal/anchor"
	"linext/internal/capture"
	"linext/internal/pipeline"
	"linext/pkg/contract"
	"linext/pkg/registry"
)

// Validate 在读取任何输入前对合并后的配置做静态校验（首个失败即报）。
// 正则编译与组上限校验延后到 Assemble（模式在那里编译一次）。
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Input) == "" {
		return fmt.Errorf("%w: input path empty", contract.ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return fmt.Errorf("%w: output path empty", contract.ErrConfigInvalid)
	}
	if cfg.Start != nil && cfg.Start.Token == "" {
		return fmt.Errorf("%w: start.token empty", contract.ErrConfigInvalid)
	}
	if cfg.End != nil && cfg.End.Token == "" {
		return fmt.Errorf("%w: end.token empty", contract.ErrConfigInvalid)
	}
	hasStart := cfg.Start != nil && cfg.Start.Token != ""
	hasEnd := cfg.End != nil && cfg.End.Token != ""
	hasPattern := strings.TrimSpace(cfg.Pattern) != ""

	if !hasStart && !hasPattern {
		return fmt.Errorf("%w: neither start nor pattern configured", contract.ErrConfigInvalid)
	}
	if hasEnd && !hasStart {
		return fmt.Errorf("%w: end requires start", contract.ErrConfigInvalid)
	}
	if cfg.OmitFirstCount < 0 {
		return fmt.Errorf("%w: omit_first_count must be >= 0", contract.ErrConfigInvalid)
	}
	if cfg.OmitLastCount < 0 {
		return fmt.Errorf("%w: omit_last_count must be >= 0", contract.ErrConfigInvalid)
	}
	if cfg.OmitFirst && !hasStart {
		return fmt.Errorf("%w: omit_first requires start", contract.ErrConfigInvalid)
	}
	if cfg.OmitLast && !hasEnd {
		return fmt.Errorf("%w: omit_last requires end", contract.ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.Groups) != "" && !hasPattern {
		return fmt.Errorf("%w: groups requires pattern", contract.ErrConfigInvalid)
	}
	if _, err := contract.ParseGroupSelector(cfg.Groups); err != nil {
		return err
	}
	lr, err := contract.ParseLineRange(cfg.LineRange)
	if err != nil {
		return err
	}
	ord, err := aggregate.ParseOrder(cfg.Sort)
	if err != nil {
		return err
	}
	key, err := aggregate.ParseKey(cfg.SortBy)
	if err != nil {
		return err
	}
	if key == aggregate.ByCount && !cfg.Counts {
		return fmt.Errorf("%w: sort_by=count requires counts", contract.ErrConfigInvalid)
	}
	if key == aggregate.ByCount && ord == aggregate.OrderNone {
		return fmt.Errorf("%w: sort_by=count requires sort", contract.ErrConfigInvalid)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0", contract.ErrConfigInvalid)
	}
	if cfg.ChunkLines < 0 {
		return fmt.Errorf("%w: chunk_lines must be >= 0", contract.ErrConfigInvalid)
	}
	if cfg.Workers > 0 {
		if !hasPattern {
			return fmt.Errorf("%w: workers requires pattern", contract.ErrConfigInvalid)
		}
		if hasStart || hasEnd {
			return fmt.Errorf("%w: workers cannot run anchor extraction", contract.ErrConfigInvalid)
		}
		if lr.IsSuffix() {
			return fmt.Errorf("%w: workers cannot use suffix ranges", contract.ErrConfigInvalid)
		}
	}
	if name := effName(cfg.Components.Source, "fs"); registry.Source[name] == nil {
		return fmt.Errorf("%w: source %q not registered", contract.ErrConfigInvalid, name)
	}
	if name := effName(cfg.Components.Sink, "fs"); registry.Sink[name] == nil {
		return fmt.Errorf("%w: sink %q not registered", contract.ErrConfigInvalid, name)
	}
	return nil
}

// Assemble 构造流水线组件与运行设置。
// 算法核（锚点/正则/聚合）由类型化配置直接构造；
// I/O 角色经注册表工厂构造，严格 Options 解析在工厂层进行。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	var comp pipeline.Components
	var set pipeline.Settings
	if err := Validate(cfg); err != nil {
		return comp, set, err
	}

	lr, err := contract.ParseLineRange(cfg.LineRange)
	if err != nil {
		return comp, set, err
	}

	if cfg.Start != nil && cfg.Start.Token != "" {
		var end *contract.EndSpec
		if cfg.End != nil && cfg.End.Token != "" {
			end = cloneEnd(cfg.End)
		}
		trim := contract.TrimSpec{
			OmitFirst:  cfg.OmitFirst,
			OmitFirstN: cfg.OmitFirstCount,
			OmitLast:   cfg.OmitLast,
			OmitLastN:  cfg.OmitLastCount,
		}
		comp.Locator = anchor.New(*cfg.Start, end, trim, cfg.CaseInsensitive)
	}

	if p := strings.TrimSpace(cfg.Pattern); p != "" {
		sel, err := contract.ParseGroupSelector(cfg.Groups)
		if err != nil {
			return comp, set, err
		}
		ex, err := capture.New(p, sel, cfg.CaseInsensitive)
		if err != nil {
			return comp, set, err
		}
		comp.Extractor = ex
	}

	ord, err := aggregate.ParseOrder(cfg.Sort)
	if err != nil {
		return comp, set, err
	}
	key, err := aggregate.ParseKey(cfg.SortBy)
	if err != nil {
		return comp, set, err
	}
	if cfg.Unique || cfg.Counts || ord != aggregate.OrderNone {
		comp.Aggregator = aggregate.New(aggregate.Options{
			Unique:   cfg.Unique,
			Sort:     ord,
			SortBy:   key,
			Counts:   cfg.Counts,
			CaseFold: cfg.CaseInsensitive,
		})
	}

	srcRaw, err := withPath(cfg.Options.Source, cfg.Input)
	if err != nil {
		return comp, set, fmt.Errorf("%w: source options: %v", contract.ErrConfigInvalid, err)
	}
	src, err := registry.Source[effName(cfg.Components.Source, "fs")](srcRaw)
	if err != nil {
		return comp, set, err
	}
	comp.Source = src

	sinkRaw, err := withPath(cfg.Options.Sink, cfg.Output)
	if err != nil {
		return comp, set, fmt.Errorf("%w: sink options: %v", contract.ErrConfigInvalid, err)
	}
	snk, err := registry.Sink[effName(cfg.Components.Sink, "fs")](sinkRaw)
	if err != nil {
		return comp, set, err
	}
	comp.Sink = snk

	set = pipeline.Settings{
		Range:      lr,
		Workers:    cfg.Workers,
		ChunkLines: cfg.ChunkLines,
		InputLabel: cfg.Input,
		ModeLabel:  modeLabel(cfg),
	}
	return comp, set, nil
}

// withPath 将顶层 input/output 注入组件 Options 的 path 键（顶层优先）。
// 未知键的拒绝仍由工厂的严格解析完成。
func withPath(raw json.RawMessage, path string) (json.RawMessage, error) {
	m := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		// 字面量 null 会把 map 置空
		if m == nil {
			m = map[string]any{}
		}
	}
	m["path"] = path
	return json.Marshal(m)
}

// modeLabel 构造终端提示的模式描述（仅展示用）。
func modeLabel(cfg Config) string {
	var parts []string
	if s := strings.TrimSpace(cfg.LineRange); s != "" {
		parts = append(parts, "range "+s)
	}
	if cfg.Start != nil && cfg.Start.Token != "" {
		parts = append(parts, "anchor")
	}
	if strings.TrimSpace(cfg.Pattern) != "" {
		parts = append(parts, "pattern")
	}
	if cfg.Counts {
		parts = append(parts, "counts")
	} else if cfg.Unique {
		parts = append(parts, "unique")
	}
	if s := strings.TrimSpace(cfg.Sort); s != "" && s != "none" {
		parts = append(parts, "sort "+s)
	}
	if cfg.Workers > 1 {
		parts = append(parts, fmt.Sprintf("workers %d", cfg.Workers))
	}
	if len(parts) == 0 {
		return "pass"
	}
	return strings.Join(parts, "+")
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
