package registry

import (
	"encoding/json"
	"testing"
)

// TestStrictUnmarshal 验证严格解码逻辑。
func TestStrictUnmarshal(t *testing.T) {
	type opt struct {
		A int `json:"a"`
	}
	var o opt
	if err := strictUnmarshal(nil, &o); err != nil || o.A != 0 {
		t.Fatalf("nil 输入失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1}`), &o); err != nil || o.A != 1 {
		t.Fatalf("合法 JSON 解析失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1,"b":2}`), &o); err == nil {
		t.Fatalf("未知字段应报错")
	}
}

// TestFactories 遍历注册表入口。
func TestFactories(t *testing.T) {
	t.Run("source", func(t *testing.T) {
		if _, err := Source["fs"](json.RawMessage(`{}`)); err != nil {
			t.Fatalf("source: %v", err)
		}
		if _, err := Source["fs"](json.RawMessage(`{"x":1}`)); err == nil {
			t.Fatalf("source 未对未知字段报错")
		}
	})
	t.Run("sink", func(t *testing.T) {
		if _, err := Sink["fs"](json.RawMessage(`{}`)); err != nil {
			t.Fatalf("sink: %v", err)
		}
		if _, err := Sink["fs"](json.RawMessage(`{"x":1}`)); err == nil {
			t.Fatalf("sink 未对未知字段报错")
		}
	})
}
