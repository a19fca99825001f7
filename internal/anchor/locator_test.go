package anchor

import (
	"testing"

	"linext/pkg/contract"
)

const passwdLine = "root:x:0:0::/root:/bin/bash"

func nth(t *testing.T, n int) contract.Occurrence {
	t.Helper()
	o, err := contract.Nth(n)
	if err != nil {
		t.Fatalf("nth(%d): %v", n, err)
	}
	return o
}

// TestLocateStartEnd 起止锚定位，匹配区两端含锚原文
func TestLocateStartEnd(t *testing.T) {
	l := New(
		contract.AnchorSpec{Token: "root", At: nth(t, 1)},
		&contract.EndSpec{Token: ":", At: nth(t, 4)},
		contract.TrimSpec{}, false)
	got, ok := l.Locate(passwdLine)
	if !ok || got != "root:x:0:0:" {
		t.Fatalf("locate: %q ok=%v", got, ok)
	}
}

// TestLocateTrimDefault 默认删除量等于锚 token 字符长
func TestLocateTrimDefault(t *testing.T) {
	l := New(
		contract.AnchorSpec{Token: "root", At: nth(t, 1)},
		&contract.EndSpec{Token: ":", At: nth(t, 4)},
		contract.TrimSpec{OmitFirst: true, OmitLast: true}, false)
	got, ok := l.Locate(passwdLine)
	if !ok || got != ":x:0:0" {
		t.Fatalf("trim: %q ok=%v", got, ok)
	}
}

// TestLocateTrimExplicit 显式删除量优先于锚长度
func TestLocateTrimExplicit(t *testing.T) {
	l := New(
		contract.AnchorSpec{Token: "root", At: nth(t, 1)},
		&contract.EndSpec{Token: ":", At: nth(t, 4)},
		contract.TrimSpec{OmitFirst: true, OmitFirstN: 5, OmitLast: true, OmitLastN: 2}, false)
	got, ok := l.Locate(passwdLine)
	if !ok || got != "x:0:" {
		t.Fatalf("trim explicit: %q ok=%v", got, ok)
	}
}

// TestLocateMissingOccurrence 起始锚不足 n 次该行排除
func TestLocateMissingOccurrence(t *testing.T) {
	// "root" 在行内出现两次（行首与 /root）
	l := New(contract.AnchorSpec{Token: "root", At: nth(t, 2)}, nil, contract.TrimSpec{}, false)
	if got, ok := l.Locate(passwdLine); !ok || got != "root:/bin/bash" {
		t.Fatalf("occurrence 2: %q ok=%v", got, ok)
	}
	l = New(contract.AnchorSpec{Token: "root", At: nth(t, 3)}, nil, contract.TrimSpec{}, false)
	if _, ok := l.Locate(passwdLine); ok {
		t.Fatalf("occurrence 3 应排除")
	}
}

// TestLocateNonOverlapping 出现计数按非重叠步进
func TestLocateNonOverlapping(t *testing.T) {
	l := New(contract.AnchorSpec{Token: "aa", At: nth(t, 2)}, nil, contract.TrimSpec{}, false)
	if got, ok := l.Locate("aaaa"); !ok || got != "aa" {
		t.Fatalf("non-overlap: %q ok=%v", got, ok)
	}
	l = New(contract.AnchorSpec{Token: "aa", At: nth(t, 3)}, nil, contract.TrimSpec{}, false)
	if _, ok := l.Locate("aaaa"); ok {
		t.Fatalf("aaaa 内 aa 非重叠仅 2 次")
	}
}

// TestLocateEndAfterStart 结束锚自起始锚文本之后计数（同 token 亦然）
func TestLocateEndAfterStart(t *testing.T) {
	l := New(
		contract.AnchorSpec{Token: ":", At: nth(t, 1)},
		&contract.EndSpec{Token: ":", At: nth(t, 1)},
		contract.TrimSpec{}, false)
	if got, ok := l.Locate("a:b:c"); !ok || got != ":b:" {
		t.Fatalf("equal tokens: %q ok=%v", got, ok)
	}
}

// TestLocateEndMissing 结束锚未出现该行排除（无部分匹配）
func TestLocateEndMissing(t *testing.T) {
	l := New(
		contract.AnchorSpec{Token: "root", At: nth(t, 1)},
		&contract.EndSpec{Token: "zsh", At: nth(t, 1)},
		contract.TrimSpec{}, false)
	if _, ok := l.Locate(passwdLine); ok {
		t.Fatalf("end 未命中应排除")
	}
}

// TestLocateAll At=all 自行首整行，不过滤不扫描
func TestLocateAll(t *testing.T) {
	l := New(contract.AnchorSpec{Token: "root", At: contract.OccurrenceAll}, nil, contract.TrimSpec{}, false)
	if got, ok := l.Locate(passwdLine); !ok || got != passwdLine {
		t.Fatalf("all: %q ok=%v", got, ok)
	}
	// token 不在行内同样放行
	if got, ok := l.Locate("nobody:x:65534:"); !ok || got != "nobody:x:65534:" {
		t.Fatalf("all absent token: %q ok=%v", got, ok)
	}
	if got, ok := l.Locate(""); !ok || got != "" {
		t.Fatalf("all empty line: %q ok=%v", got, ok)
	}
}

// TestLocateAllTrim all 变体零长锚文本：默认删除为空操作，显式计数仍生效
func TestLocateAllTrim(t *testing.T) {
	l := New(contract.AnchorSpec{At: contract.OccurrenceAll}, nil,
		contract.TrimSpec{OmitFirst: true}, false)
	if got, ok := l.Locate("abcdef"); !ok || got != "abcdef" {
		t.Fatalf("all default trim: %q", got)
	}
	l = New(contract.AnchorSpec{At: contract.OccurrenceAll}, nil,
		contract.TrimSpec{OmitFirst: true, OmitFirstN: 2}, false)
	if got, ok := l.Locate("abcdef"); !ok || got != "cdef" {
		t.Fatalf("all explicit trim: %q", got)
	}
}

// TestLocateAllWithEnd all 起点 + 结束锚自偏移 0 计数
func TestLocateAllWithEnd(t *testing.T) {
	l := New(
		contract.AnchorSpec{Token: "root", At: contract.OccurrenceAll},
		&contract.EndSpec{Token: ":", At: nth(t, 2)},
		contract.TrimSpec{}, false)
	if got, ok := l.Locate(passwdLine); !ok || got != "root:x:" {
		t.Fatalf("all+end: %q ok=%v", got, ok)
	}
}

// TestLocateEndAtAll 结束锚 At=all 等价缺省：延伸至行尾
func TestLocateEndAtAll(t *testing.T) {
	l := New(
		contract.AnchorSpec{Token: "0:0", At: nth(t, 1)},
		&contract.EndSpec{Token: ":", At: contract.OccurrenceAll},
		contract.TrimSpec{}, false)
	if got, ok := l.Locate(passwdLine); !ok || got != "0:0::/root:/bin/bash" {
		t.Fatalf("end all: %q ok=%v", got, ok)
	}
}

// TestLocateInsensitive ASCII 大小写折叠，偏移精确
func TestLocateInsensitive(t *testing.T) {
	l := New(
		contract.AnchorSpec{Token: "ROOT", At: nth(t, 1)},
		&contract.EndSpec{Token: ":", At: nth(t, 4)},
		contract.TrimSpec{}, true)
	if got, ok := l.Locate(passwdLine); !ok || got != "root:x:0:0:" {
		t.Fatalf("insensitive: %q ok=%v", got, ok)
	}
	// 大小写敏感时不命中
	l = New(contract.AnchorSpec{Token: "ROOT", At: nth(t, 1)}, nil, contract.TrimSpec{}, false)
	if _, ok := l.Locate(passwdLine); ok {
		t.Fatalf("sensitive 应排除")
	}
}

// TestLocateInsensitiveMixed 行内混合大小写的第 n 次计数
func TestLocateInsensitiveMixed(t *testing.T) {
	l := New(contract.AnchorSpec{Token: "err", At: nth(t, 2)}, nil, contract.TrimSpec{}, true)
	if got, ok := l.Locate("ERR one Err two"); !ok || got != "Err two" {
		t.Fatalf("mixed: %q ok=%v", got, ok)
	}
}

// TestLocateRuneTrim 删除量按字符（rune）计数
func TestLocateRuneTrim(t *testing.T) {
	l := New(
		contract.AnchorSpec{Token: "《", At: nth(t, 1)},
		&contract.EndSpec{Token: "》", At: nth(t, 1)},
		contract.TrimSpec{OmitFirst: true, OmitLast: true}, false)
	if got, ok := l.Locate("x《日志》y"); !ok || got != "日志" {
		t.Fatalf("rune trim: %q ok=%v", got, ok)
	}
}

// TestLocateStartNoEnd 无结束锚延伸至行尾
func TestLocateStartNoEnd(t *testing.T) {
	l := New(contract.AnchorSpec{Token: "/bin", At: nth(t, 1)}, nil, contract.TrimSpec{}, false)
	if got, ok := l.Locate(passwdLine); !ok || got != "/bin/bash" {
		t.Fatalf("no end: %q ok=%v", got, ok)
	}
}

func BenchmarkLocate(b *testing.B) {
	l := New(
		contract.AnchorSpec{Token: "root", At: mustNth(1)},
		&contract.EndSpec{Token: ":", At: mustNth(4)},
		contract.TrimSpec{}, false)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l.Locate(passwdLine)
	}
}

func mustNth(n int) contract.Occurrence {
	o, err := contract.Nth(n)
	if err != nil {
		panic(err)
	}
	return o
}
