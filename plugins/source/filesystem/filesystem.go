package filesystem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"linext/pkg/contract"
)

// Options 为 FileSystem Source 的可选配置（最小必要）。
type Options struct {
	// Path: 输入路径；"-" 或空表示 STDIN。
	Path string `json:"path"`
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
}

// FileSystem 实现基于单文件与 STDIN 的 Source。
// 行长不设上限（bufio.Reader 按需增长）；仅行数受调用方的区间约束。
type FileSystem struct {
	path    string
	bufSize int
}

// New 创建 FileSystem Source。
func New(opts *Options) *FileSystem {
	const defaultBuf = 64 * 1024
	p := "-"
	b := defaultBuf
	if opts != nil {
		if s := strings.TrimSpace(opts.Path); s != "" {
			p = s
		}
		if opts.BufSize > 0 {
			b = opts.BufSize
		}
	}
	return &FileSystem{path: p, bufSize: b}
}

// Iterate 逐行回调，Index 自 1 递增；行尾 \n 与 \r\n 已剥离。
func (s *FileSystem) Iterate(ctx context.Context, yield func(contract.Line) error) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	var rc io.ReadCloser
	if s.path == "-" {
		// STDIN 不由本层关闭
		rc = io.NopCloser(os.Stdin)
	} else {
		info, err := os.Stat(s.path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", contract.ErrPathInvalid, s.path)
		}
		f, err := os.Open(s.path)
		if err != nil {
			return err
		}
		rc = f
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, s.bufSize)
	var idx int64
	for {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		line, eof, err := readTrimmedLine(br)
		if err != nil {
			return err
		}
		if eof {
			return nil
		}
		idx++
		if err := yield(contract.Line{Index: idx, Text: line}); err != nil {
			return err
		}
	}
}

// readTrimmedLine 读取一行，归一 CRLF→LF，并去除结尾换行符；返回该行、是否 EOF。
func readTrimmedLine(br *bufio.Reader) (line string, eof bool, err error) {
	s, err := br.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			eof = true
		} else {
			return "", false, err
		}
	}
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, eof && s == "", nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
