package aggregate

import (
	"reflect"
	"testing"
)

func feed(t *testing.T, a *Accumulator, in ...string) []string {
	t.Helper()
	var out []string
	for _, s := range in {
		if v, ok := a.Add(s); ok {
			out = append(out, v)
		}
	}
	if err := a.Flush(func(s string) error {
		out = append(out, s)
		return nil
	}); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return out
}

// TestPassThrough 默认直通，保持到达顺序
func TestPassThrough(t *testing.T) {
	a := New(Options{})
	if !a.Streaming() {
		t.Fatalf("应为流式")
	}
	got := feed(t, a, "b", "a", "b")
	if !reflect.DeepEqual(got, []string{"b", "a", "b"}) {
		t.Fatalf("pass-through: %v", got)
	}
}

// TestUnique 重复抑制，保持首见顺序与首见大小写
func TestUnique(t *testing.T) {
	a := New(Options{Unique: true})
	if !a.Streaming() {
		t.Fatalf("unique 应保持流式")
	}
	got := feed(t, a, "b", "a", "b", "c", "a")
	if !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Fatalf("unique: %v", got)
	}
}

// TestUniqueCaseFold 键折叠大小写，输出保留首见形态
func TestUniqueCaseFold(t *testing.T) {
	a := New(Options{Unique: true, CaseFold: true})
	got := feed(t, a, "Alpha", "ALPHA", "alpha", "beta")
	if !reflect.DeepEqual(got, []string{"Alpha", "beta"}) {
		t.Fatalf("casefold: %v", got)
	}
}

// TestSortAsc 值升序；重复保留
func TestSortAsc(t *testing.T) {
	a := New(Options{Sort: OrderAsc})
	if a.Streaming() {
		t.Fatalf("sort 不应流式")
	}
	got := feed(t, a, "c", "a", "b", "a")
	if !reflect.DeepEqual(got, []string{"a", "a", "b", "c"}) {
		t.Fatalf("sort asc: %v", got)
	}
}

// TestSortDesc 值降序
func TestSortDesc(t *testing.T) {
	a := New(Options{Sort: OrderDesc})
	got := feed(t, a, "a", "c", "b")
	if !reflect.DeepEqual(got, []string{"c", "b", "a"}) {
		t.Fatalf("sort desc: %v", got)
	}
}

// TestSortIdempotent 已排序输入重排产出同一序列
func TestSortIdempotent(t *testing.T) {
	first := feed(t, New(Options{Sort: OrderAsc}), "q", "m", "z", "m")
	second := feed(t, New(Options{Sort: OrderAsc}), first...)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("idempotence: %v vs %v", first, second)
	}
}

// TestSortUnique 去重后排序
func TestSortUnique(t *testing.T) {
	a := New(Options{Sort: OrderAsc, Unique: true})
	got := feed(t, a, "c", "a", "c", "b")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("sort+unique: %v", got)
	}
}

// TestSortIPv4 全部值为 IPv4 时按地址数值序
func TestSortIPv4(t *testing.T) {
	a := New(Options{Sort: OrderAsc})
	got := feed(t, a, "10.0.0.10", "10.0.0.9", "10.0.0.2")
	if !reflect.DeepEqual(got, []string{"10.0.0.2", "10.0.0.9", "10.0.0.10"}) {
		t.Fatalf("ipv4 asc: %v", got)
	}
	a = New(Options{Sort: OrderDesc})
	got = feed(t, a, "10.0.0.10", "10.0.0.9", "10.0.0.2")
	if !reflect.DeepEqual(got, []string{"10.0.0.10", "10.0.0.9", "10.0.0.2"}) {
		t.Fatalf("ipv4 desc: %v", got)
	}
}

// TestSortIPv4Mixed 任一值非 IPv4 则回退字节序
func TestSortIPv4Mixed(t *testing.T) {
	a := New(Options{Sort: OrderAsc})
	got := feed(t, a, "10.0.0.10", "host", "10.0.0.9")
	if !reflect.DeepEqual(got, []string{"10.0.0.10", "10.0.0.9", "host"}) {
		t.Fatalf("mixed: %v", got)
	}
}

// TestCounts 计数表：首见顺序，串左对齐补至最宽键
func TestCounts(t *testing.T) {
	a := New(Options{Counts: true})
	got := feed(t, a, "bbb", "a", "bbb")
	want := []string{"bbb 2", "a   1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("counts: %v", got)
	}
}

// TestCountsSum 计数合计等于产出行数
func TestCountsSum(t *testing.T) {
	a := New(Options{Counts: true})
	in := []string{"x", "y", "x", "z", "x", "y"}
	for _, s := range in {
		a.Add(s)
	}
	sum := 0
	for _, t2 := range a.counts {
		sum += t2.n
	}
	if sum != len(in) {
		t.Fatalf("sum=%d want %d", sum, len(in))
	}
}

// TestCountsSortByCount 计数降序，同计数键升序
func TestCountsSortByCount(t *testing.T) {
	a := New(Options{Counts: true, Sort: OrderDesc, SortBy: ByCount})
	got := feed(t, a, "c", "b", "b", "a", "b")
	want := []string{"b 3", "a 1", "c 1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("by count desc: %v", got)
	}
	a = New(Options{Counts: true, Sort: OrderAsc, SortBy: ByCount})
	got = feed(t, a, "c", "b", "b", "a", "b")
	want = []string{"a 1", "c 1", "b 3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("by count asc: %v", got)
	}
}

// TestCountsSortByValue 计数表按键排序
func TestCountsSortByValue(t *testing.T) {
	a := New(Options{Counts: true, Sort: OrderAsc, SortBy: ByValue})
	got := feed(t, a, "b", "a", "c", "a")
	want := []string{"a 2", "b 1", "c 1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("by value: %v", got)
	}
}

// TestCountsCaseFold 折叠键合并计数，显示首见形态
func TestCountsCaseFold(t *testing.T) {
	a := New(Options{Counts: true, CaseFold: true})
	got := feed(t, a, "Err", "ERR", "ok")
	want := []string{"Err 2", "ok  1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("counts fold: %v", got)
	}
}

// TestParseOrder 排序方向解析
func TestParseOrder(t *testing.T) {
	for in, want := range map[string]Order{"": OrderNone, "none": OrderNone, "asc": OrderAsc, "desc": OrderDesc} {
		got, err := ParseOrder(in)
		if err != nil || got != want {
			t.Fatalf("ParseOrder(%q)=%v,%v", in, got, err)
		}
	}
	if _, err := ParseOrder("up"); err == nil {
		t.Fatalf("应拒绝未知方向")
	}
}

// TestParseKey 排序依据解析
func TestParseKey(t *testing.T) {
	for in, want := range map[string]Key{"": ByValue, "value": ByValue, "count": ByCount} {
		got, err := ParseKey(in)
		if err != nil || got != want {
			t.Fatalf("ParseKey(%q)=%v,%v", in, got, err)
		}
	}
	if _, err := ParseKey("freq"); err == nil {
		t.Fatalf("应拒绝未知依据")
	}
}
