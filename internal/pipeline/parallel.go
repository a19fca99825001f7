package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"linext/internal/diag"
	"linext/pkg/contract"
)

// 并行分片执行：生产者按 ChunkLines 切片 → workers 并行正则抽取 →
// 按分片序号门闩提交。
// - 提交按分片序号严格递增；乱序完成的分片暂存，连续即冲刷。
// - 聚合与下发由提交环单写者执行，输出与顺序执行逐字节一致。
// - 首错取消：errgroup 承载生产者与 workers；提交环出错时显式 cancel 并排空。

type chunk struct {
	idx   int64
	lines []string
}

type chunkOut struct {
	idx   int64
	lines []string
}

func runParallel(ctx context.Context, cancel context.CancelFunc, comp Components, set Settings) (int64, int64, error) {
	var read, emitted atomic.Int64

	seq := func(yield func(string) error) error {
		g, gctx := errgroup.WithContext(ctx)
		// 有界通道：容量 = worker 数，形成自然背压
		chunkCh := make(chan chunk, set.Workers)
		outCh := make(chan chunkOut, set.Workers)

		// 生产者：读行、过滤区间、切片
		g.Go(func() error {
			defer close(chunkCh)
			r := set.Range
			next := int64(0)
			cur := make([]string, 0, set.ChunkLines)
			flush := func() error {
				if len(cur) == 0 {
					return nil
				}
				c := chunk{idx: next, lines: cur}
				next++
				cur = make([]string, 0, set.ChunkLines)
				select {
				case <-gctx.Done():
					return gctx.Err()
				case chunkCh <- c:
					return nil
				}
			}
			err := comp.Source.Iterate(gctx, func(ln contract.Line) error {
				if n := read.Add(1); n&8191 == 0 {
					if t := diag.GetTerminal(); t != nil {
						t.Progress(n, emitted.Load())
					}
				}
				if r.Hi > 0 && ln.Index > r.Hi {
					return errRangeDone
				}
				if r.Lo > 0 && ln.Index < r.Lo {
					return nil
				}
				cur = append(cur, ln.Text)
				if len(cur) >= set.ChunkLines {
					return flush()
				}
				return nil
			})
			if err != nil && !errors.Is(err, errRangeDone) {
				return fmt.Errorf("source iterate: %w", err)
			}
			return flush()
		})

		// workers：逐分片抽取；outCh 在全部 worker 退出后关闭
		var wg sync.WaitGroup
		for i := 0; i < set.Workers; i++ {
			wg.Add(1)
			g.Go(func() error {
				defer wg.Done()
				for c := range chunkCh {
					out := make([]string, 0, len(c.lines))
					for _, text := range c.lines {
						if s, ok := comp.Extractor.Extract(text); ok {
							out = append(out, s)
						}
					}
					select {
					case <-gctx.Done():
						return gctx.Err()
					case outCh <- chunkOut{idx: c.idx, lines: out}:
					}
				}
				return nil
			})
		}
		go func() {
			wg.Wait()
			close(outCh)
		}()

		emit := func(s string) error {
			if n := emitted.Add(1); n&1023 == 0 {
				if t := diag.GetTerminal(); t != nil {
					t.Progress(read.Load(), n)
				}
			}
			return yield(s)
		}
		commit := func(s string) error {
			if comp.Aggregator != nil {
				v, ok := comp.Aggregator.Add(s)
				if !ok {
					return nil
				}
				s = v
			}
			return emit(s)
		}

		// 提交门闩
		var commitErr error
		expect := int64(0)
		pend := make(map[int64][]string)
		for r := range outCh {
			if commitErr != nil {
				continue // 已出错：仅排空通道
			}
			pend[r.idx] = r.lines
			for {
				lines, ok := pend[expect]
				if !ok {
					break
				}
				for _, s := range lines {
					if err := commit(s); err != nil {
						commitErr = err
						cancel()
						break
					}
				}
				if commitErr != nil {
					break
				}
				delete(pend, expect)
				expect++
			}
		}
		if commitErr != nil {
			// 排空完成；生产侧以取消收尾，首错以提交侧为准
			_ = g.Wait()
			return commitErr
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if comp.Aggregator != nil {
			if err := comp.Aggregator.Flush(emit); err != nil {
				return fmt.Errorf("aggregate flush: %w", err)
			}
		}
		return nil
	}

	err := comp.Sink.Consume(ctx, contract.LineSeq(seq))
	return read.Load(), emitted.Load(), err
}
