package registry

import (
	"bytes"
	"encoding/json"

	"linext/pkg/contract"
	sifs "linext/plugins/sink/filesystem"
	sofs "linext/plugins/source/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewSource 工厂签名：接收原样 JSON Options。
type NewSource func(raw json.RawMessage) (contract.Source, error)

// NewSink 工厂签名：接收原样 JSON Options。
type NewSink func(raw json.RawMessage) (contract.Sink, error)

// Source 工厂注册表（显式、零反射）。
var Source = map[string]NewSource{
	// fs: 文件系统/STDIN 行源
	"fs": func(raw json.RawMessage) (contract.Source, error) {
		var opts sofs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return sofs.New(&opts), nil
	},
}

// Sink 工厂注册表。
var Sink = map[string]NewSink{
	// fs: 文件系统/STDOUT 行汇（覆盖写/原子替换可配置）
	"fs": func(raw json.RawMessage) (contract.Sink, error) {
		var opts sifs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return sifs.New(&opts)
	},
}
