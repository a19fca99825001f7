package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"linext/pkg/contract"
)

// Options: 最小必要选项。
type Options struct {
	// Path: 输出路径；"-" 或空表示 STDOUT。
	Path string `json:"path"`
	// Atomic: 是否使用原子替换（同目录临时文件 + rename）。
	// 默认值：true。仅对文件目标生效；STDOUT 恒为直写。
	Atomic *bool `json:"atomic,omitempty"`
	// PermFile: 可选权限；为 0 表示 0644。
	PermFile os.FileMode `json:"perm_file,omitempty"`
	// BufSize: 写缓冲区大小；<=0 使用实现默认。
	BufSize int `json:"buf_size,omitempty"`
}

// FS 实现基于 STDOUT 与单文件的 Sink。
type FS struct {
	path    string
	atomic  bool
	permF   os.FileMode
	bufSize int

	// stdout 可注入以便测试。
	stdout io.Writer
}

// New 创建文件系统 Sink 实现。
func New(opts *Options) (*FS, error) {
	p := "-"
	bsz := 64 * 1024
	pf := os.FileMode(0o644)
	atomic := true
	if opts != nil {
		if s := strings.TrimSpace(opts.Path); s != "" {
			p = s
		}
		if opts.BufSize > 0 {
			bsz = opts.BufSize
		}
		if opts.PermFile != 0 {
			pf = opts.PermFile
		}
		if opts.Atomic != nil {
			atomic = *opts.Atomic
		}
	}
	if p != "-" {
		if st, err := os.Stat(p); err == nil && st.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", contract.ErrPathInvalid, p)
		}
	}
	return &FS{path: p, atomic: atomic, permF: pf, bufSize: bsz, stdout: os.Stdout}, nil
}

var _ contract.Sink = (*FS)(nil)

// Consume 依次写出序列中的每一行（行尾补 \n）。
// 文件目标默认原子替换；序列报错时不落下半写结果。
func (w *FS) Consume(ctx context.Context, lines contract.LineSeq) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if w.path == "-" {
		bw := bufio.NewWriterSize(w.stdout, w.bufSize)
		if err := w.drain(ctx, bw, lines); err != nil {
			// 已下发的行保留在 STDOUT；仅保证缓冲落盘
			_ = bw.Flush()
			return err
		}
		return bw.Flush()
	}

	if w.atomic {
		return w.consumeAtomic(ctx, lines)
	}
	return w.consumeOverwrite(ctx, lines)
}

func (w *FS) drain(ctx context.Context, bw *bufio.Writer, lines contract.LineSeq) error {
	return lines(func(s string) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := bw.WriteString(s); err != nil {
			return err
		}
		return bw.WriteByte('\n')
	})
}

func (w *FS) consumeOverwrite(ctx context.Context, lines contract.LineSeq) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, w.permF)
	if err != nil {
		return err
	}
	// 确保及时关闭
	defer f.Close()

	bw := bufio.NewWriterSize(f, w.bufSize)
	if err := w.drain(ctx, bw, lines); err != nil {
		return err
	}
	return bw.Flush()
}

func (w *FS) consumeAtomic(ctx context.Context, lines contract.LineSeq) error {
	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	// 目标权限：尽量与期望一致
	_ = os.Chmod(tmpPath, w.permF)

	bw := bufio.NewWriterSize(tmp, w.bufSize)
	if err := w.drain(ctx, bw, lines); err != nil {
		_ = bw.Flush()
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// 平台特定的原子替换（或最佳努力）：
	if err := osReplace(tmpPath, w.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// 最佳努力：在部分平台同步父目录，提升崩溃安全性
	_ = syncDir(dir)
	return nil
}
