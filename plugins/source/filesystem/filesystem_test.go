package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"linext/pkg/contract"
)

func collect(t *testing.T, s *FileSystem) []contract.Line {
	t.Helper()
	var out []contract.Line
	err := s.Iterate(context.Background(), func(l contract.Line) error {
		out = append(out, l)
		return nil
	})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	return out
}

// TestIterateFile 读取单文件，Index 自 1 连续
func TestIterateFile(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "a.txt")
	os.WriteFile(fp, []byte("one\ntwo\nthree\n"), 0o644)
	got := collect(t, New(&Options{Path: fp}))
	if len(got) != 3 {
		t.Fatalf("lines=%d", len(got))
	}
	want := []string{"one", "two", "three"}
	for i, l := range got {
		if l.Index != int64(i+1) || l.Text != want[i] {
			t.Fatalf("line %d: %+v", i, l)
		}
	}
}

// TestIterateCRLF CRLF 归一为 LF 后剥离
func TestIterateCRLF(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "a.txt")
	os.WriteFile(fp, []byte("a\r\nb\r\n"), 0o644)
	got := collect(t, New(&Options{Path: fp}))
	if len(got) != 2 || got[0].Text != "a" || got[1].Text != "b" {
		t.Fatalf("crlf: %+v", got)
	}
}

// TestIterateNoFinalNewline 末行缺换行仍计为一行
func TestIterateNoFinalNewline(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "a.txt")
	os.WriteFile(fp, []byte("x\ny"), 0o644)
	got := collect(t, New(&Options{Path: fp}))
	if len(got) != 2 || got[1].Text != "y" {
		t.Fatalf("final line: %+v", got)
	}
}

// TestIterateEmpty 空文件产出零行
func TestIterateEmpty(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "a.txt")
	os.WriteFile(fp, nil, 0o644)
	got := collect(t, New(&Options{Path: fp}))
	if len(got) != 0 {
		t.Fatalf("empty: %+v", got)
	}
}

// TestIteratePreservesInnerSpace 仅剥离行尾换行，保留首尾空白
func TestIteratePreservesInnerSpace(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "a.txt")
	os.WriteFile(fp, []byte("  padded  \n"), 0o644)
	got := collect(t, New(&Options{Path: fp}))
	if len(got) != 1 || got[0].Text != "  padded  " {
		t.Fatalf("space: %+v", got)
	}
}

// TestIterateDir 目录目标报路径无效
func TestIterateDir(t *testing.T) {
	dir := t.TempDir()
	err := New(&Options{Path: dir}).Iterate(context.Background(), func(contract.Line) error { return nil })
	if !errors.Is(err, contract.ErrPathInvalid) {
		t.Fatalf("expect path invalid, got %v", err)
	}
}

// TestIterateMissing 不存在的文件
func TestIterateMissing(t *testing.T) {
	err := New(&Options{Path: filepath.Join(t.TempDir(), "nope")}).
		Iterate(context.Background(), func(contract.Line) error { return nil })
	if err == nil {
		t.Fatalf("expect stat error")
	}
}

// TestIterateYieldError 回调错误原样上抛并停止
func TestIterateYieldError(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "a.txt")
	os.WriteFile(fp, []byte("a\nb\nc\n"), 0o644)
	boom := errors.New("boom")
	n := 0
	err := New(&Options{Path: fp}).Iterate(context.Background(), func(contract.Line) error {
		n++
		if n == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) || n != 2 {
		t.Fatalf("yield error: err=%v n=%d", err, n)
	}
}

// TestIterateCtxCancel 上下文取消
func TestIterateCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(nil).Iterate(ctx, func(contract.Line) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expect ctx error, got %v", err)
	}
}

// TestIterateStdin Path 为 '-' 时读取 STDIN
func TestIterateStdin(t *testing.T) {
	old := os.Stdin
	pr, pw, _ := os.Pipe()
	os.Stdin = pr
	defer func() { os.Stdin = old }()
	go func() {
		pw.Write([]byte("hi\nthere\n"))
		pw.Close()
	}()
	got := collect(t, New(nil))
	if len(got) != 2 || got[0].Text != "hi" || got[1].Text != "there" {
		t.Fatalf("stdin: %+v", got)
	}
}
