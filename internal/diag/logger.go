package diag

import (
	"time"

	"github.com/rs/zerolog"
)

// Logger 为运行诊断日志器：NDJSON 写入日志目录（轮转），不触碰 stdout/stderr。
// 未配置日志目录时为 no-op（过滤器的 stdout 必须保持纯净，stderr 默认安静）。
type Logger struct {
	corrID string
	zl     zerolog.Logger
	sink   *RotatingFile
}

// NewLogger 以关联 ID、级别与目录初始化。dir 为空时返回 no-op 日志器；
// 级别不可解析时回退 info。
func NewLogger(corrID, level, dir string) *Logger {
	if dir == "" {
		return &Logger{corrID: corrID, zl: zerolog.Nop()}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	sink := NewRotatingFile(dir, 10*1024*1024)
	zl := zerolog.New(sink).Level(lvl).With().Timestamp().Str("corr_id", corrID).Logger()
	return &Logger{corrID: corrID, zl: zl, sink: sink}
}

// CorrID 返回本次运行的关联 ID。
func (l *Logger) CorrID() string { return l.corrID }

// Close 释放日志文件句柄（no-op 日志器安全）。
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	l.zl.Info().Str("comp", comp).Str("stage", "start").Msg(msg)
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// StartKV 记录带键值的 start（例如输入路径、区间表达式）。
func (l *Logger) StartKV(comp, msg string, kv map[string]string) *Timer {
	ev := l.zl.Info().Str("comp", comp).Str("stage", "start")
	for k, v := range kv {
		ev = ev.Str(k, v)
	}
	ev.Msg(msg)
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// Error 记录 error 事件（带分类代码，永不降级）。
func (l *Logger) Error(comp string, code Code, msg string) {
	l.zl.Error().Str("comp", comp).Str("stage", "error").Str("code", string(code)).Msg(msg)
}

// Debug 记录调试事件（仅 level=debug 时落盘）。
func (l *Logger) Debug(comp, msg string, kv map[string]string) {
	ev := l.zl.Debug().Str("comp", comp)
	for k, v := range kv {
		ev = ev.Str(k, v)
	}
	ev.Msg(msg)
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l    *Logger
	comp string
	t0   time.Time
}

// Finish 记录 finish 与耗时；count 为本阶段处理量（行数等）。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	t.l.zl.Info().
		Str("comp", t.comp).
		Str("stage", "finish").
		Int64("dur_ms", time.Since(t.t0).Milliseconds()).
		Int64("count", count).
		Msg(msg)
}

// Since 返回计时起点以来的时长（终端提示复用）。
func (t *Timer) Since() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.t0)
}
