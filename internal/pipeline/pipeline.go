package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"linext/internal/diag"
	"linext/pkg/contract"
)

// 流水线驱动：Source → [区间] → [Locator] → [Extractor] → [Aggregator] → Sink。
// - 单点并发：仅此层管理并发与背压；原子组件均为同步、无内部并发。
// - 顺序契约：输出顺序与输入行序一致（聚合器的排序/计数语义除外）。
// - 流式优先：透传/去重保持 O(1) 额外内存；排序/计数/尾部区间按需暂存。
// - stdout 只承载数据行；诊断走 logger 与 terminal（stderr）。

// Components 聚合运行所需的原子组件。
// Locator/Extractor/Aggregator 可为 nil（跳过该级）；Source 与 Sink 必备。
type Components struct {
	Source     contract.Source
	Locator    contract.Locator
	Extractor  contract.Extractor
	Aggregator contract.Aggregator
	Sink       contract.Sink
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	// Range: 行号选择区（零值不限制），作用于输入行号。
	Range contract.LineRange
	// Workers: 并行 worker 数；<=1 顺序执行。并行仅支持纯正则流水（见 sanity）。
	Workers int
	// ChunkLines: 并行分片行数；<=0 取默认。
	ChunkLines int
	// InputLabel/ModeLabel: 终端提示用的输入名与模式描述。
	InputLabel string
	ModeLabel  string
}

const defaultChunkLines = 10000

// errRangeDone: 越过绝对上界后提前终止遍历的内部哨兵（由本层吸收，不上抛）。
var errRangeDone = errors.New("range satisfied")

// Run 执行完整流水线；Workers > 1 时走并行分片路径。
// 约束：
// 1) 首错即败：任一阶段出错，取消其余工作并返回首错；
// 2) 逐行不命中不是错误（正常排除），空输出合法；
// 3) 终端提示与日志均为旁路，不影响数据结果。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) error {
	if logger == nil {
		logger = diag.NewLogger("", "", "")
	}
	if err := sanity(comp, &set); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if t := diag.GetTerminal(); t != nil {
		t.RunStart(set.InputLabel, set.ModeLabel)
	}
	timer := logger.StartKV("pipeline", "run", map[string]string{
		"input":   set.InputLabel,
		"mode":    set.ModeLabel,
		"range":   set.Range.String(),
		"workers": strconv.Itoa(set.Workers),
	})
	t0 := time.Now()

	var read, emitted int64
	var err error
	if set.Workers > 1 {
		read, emitted, err = runParallel(ctx, cancel, comp, set)
	} else {
		read, emitted, err = runSequential(ctx, comp, set)
	}

	diag.AddLines("pipeline", "read", read)
	diag.AddLines("pipeline", "emitted", emitted)
	if t := diag.GetTerminal(); t != nil {
		t.RunFinish(err == nil, read, emitted, time.Since(t0))
	}
	if err != nil {
		code := diag.Classify(err)
		logger.Error("pipeline", code, err.Error())
		diag.IncOp("pipeline", "run", "error")
		diag.IncError("pipeline", code)
		return err
	}
	timer.Finish("run", emitted)
	diag.IncOp("pipeline", "run", "success")
	return nil
}

// runSequential: 单 goroutine 全链路。Sink.Consume 驱动整个序列，
// 输入读取发生在序列体内，保证成功路径到失败路径都只消费一次。
func runSequential(ctx context.Context, comp Components, set Settings) (read, emitted int64, _ error) {
	seq := func(yield func(string) error) error {
		progress := func() {
			if t := diag.GetTerminal(); t != nil {
				t.Progress(read, emitted)
			}
		}
		emit := func(s string) error {
			emitted++
			if emitted&1023 == 0 {
				progress()
			}
			return yield(s)
		}
		process := func(text string) error {
			out := text
			if comp.Locator != nil {
				s, ok := comp.Locator.Locate(out)
				if !ok {
					return nil
				}
				out = s
			}
			if comp.Extractor != nil {
				s, ok := comp.Extractor.Extract(out)
				if !ok {
					return nil
				}
				out = s
			}
			if comp.Aggregator != nil {
				s, ok := comp.Aggregator.Add(out)
				if !ok {
					return nil
				}
				out = s
			}
			return emit(out)
		}

		r := set.Range
		if r.IsSuffix() {
			// 尾部区间：容量 Tail 的环形缓冲，读尽后按到达序回放
			tail := int(r.Tail)
			ring := make([]string, tail)
			n, pos := 0, 0
			if err := comp.Source.Iterate(ctx, func(ln contract.Line) error {
				read++
				if read&1023 == 0 {
					progress()
				}
				ring[pos] = ln.Text
				pos = (pos + 1) % tail
				if n < tail {
					n++
				}
				return nil
			}); err != nil {
				return fmt.Errorf("source iterate: %w", err)
			}
			start := 0
			if n == tail {
				start = pos
			}
			for i := 0; i < n; i++ {
				if err := process(ring[(start+i)%tail]); err != nil {
					return err
				}
			}
		} else {
			err := comp.Source.Iterate(ctx, func(ln contract.Line) error {
				read++
				if read&1023 == 0 {
					progress()
				}
				if r.Hi > 0 && ln.Index > r.Hi {
					return errRangeDone
				}
				if r.Lo > 0 && ln.Index < r.Lo {
					return nil
				}
				return process(ln.Text)
			})
			if err != nil && !errors.Is(err, errRangeDone) {
				return fmt.Errorf("source iterate: %w", err)
			}
		}
		if comp.Aggregator != nil {
			if err := comp.Aggregator.Flush(emit); err != nil {
				return fmt.Errorf("aggregate flush: %w", err)
			}
		}
		return nil
	}
	if err := comp.Sink.Consume(ctx, contract.LineSeq(seq)); err != nil {
		return read, emitted, err
	}
	return read, emitted, nil
}

// sanity 校验组件组合并回填默认值。
// 并行路径只接纳纯正则流水：锚点定位的序号语义与尾部区间都依赖
// 单遍有状态扫描，分片执行会破坏其语义。
func sanity(c Components, s *Settings) error {
	if c.Source == nil {
		return fmt.Errorf("%w: pipeline requires a source", contract.ErrConfigInvalid)
	}
	if c.Sink == nil {
		return fmt.Errorf("%w: pipeline requires a sink", contract.ErrConfigInvalid)
	}
	if s.Workers < 1 {
		s.Workers = 1
	}
	if s.ChunkLines <= 0 {
		s.ChunkLines = defaultChunkLines
	}
	if s.Workers > 1 {
		if c.Extractor == nil {
			return fmt.Errorf("%w: parallel mode requires a regex pattern", contract.ErrConfigInvalid)
		}
		if c.Locator != nil {
			return fmt.Errorf("%w: parallel mode cannot run anchor extraction", contract.ErrConfigInvalid)
		}
		if s.Range.IsSuffix() {
			return fmt.Errorf("%w: parallel mode cannot use suffix ranges", contract.ErrConfigInvalid)
		}
	}
	return nil
}
