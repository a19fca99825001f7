// Command linext 是行文本抽取器的命令行入口。
//
// 职责（单一装配点）：
//  1. 解析 CLI 开关与配置来源（JSON 文件 / 环境变量 / .env）；
//  2. 按 CLI > ENV > JSON > 默认值 合并出最终配置；
//  3. 校验并装配流水线组件，随后移交 pipeline.Run；
//  4. 将失败映射为退出码：0 成功；1 运行失败；2 用法错误；3 配置错误。
//
// 约束：
//   - STDOUT 只承载抽取结果；所有诊断走 STDERR 与可选日志文件。
//   - 配置错误必须在读取任何输入之前暴露（fail-fast）。
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	cfgpkg "linext/internal/config"
	"linext/internal/diag"
	"linext/internal/pipeline"
	"linext/pkg/contract"
)

// pipelineRun 以变量承载，便于测试替换。
var pipelineRun = pipeline.Run

func main() {
	os.Exit(run())
}

// cliFlags 聚合本次进程的全部命令行开关。
// 数值开关以 -1 表示「未给出」，使显式 0 可与缺省区分。
type cliFlags struct {
	config  string
	initDir string

	input  string
	output string

	start   string
	startAt string
	end     string
	endAt   string

	pattern string
	groups  string

	lineRange string
	insens    bool

	omitFirst int
	omitLast  int
	omitBoth  bool

	unique bool
	sort   string
	sortBy string
	counts bool

	workers int
	status  bool
}

func bindFlags(fl *cliFlags) {
	flag.StringVar(&fl.config, "config", "", "配置文件路径（JSON）；缺省时读取 ./linext.json（若存在）")
	flag.StringVar(&fl.initDir, "init-config", "", "在目录生成 linext.json 与 .env 模板（不带值默认当前目录；不覆盖已有配置）")

	flag.StringVar(&fl.input, "f", "", "输入文件路径（\"-\" 为 STDIN）")
	flag.StringVar(&fl.output, "o", "", "输出路径（\"-\" 为 STDOUT）")

	flag.StringVar(&fl.start, "s", "", "起始锚点 token（字面量）")
	flag.StringVar(&fl.startAt, "sn", "", "起始锚点出现序号：正整数或 all（缺省 all）")
	flag.StringVar(&fl.end, "e", "", "结束锚点 token（字面量）")
	flag.StringVar(&fl.endAt, "en", "", "结束锚点出现序号：正整数（缺省截至行尾）")

	flag.StringVar(&fl.pattern, "p", "", "正则模式（RE2）")
	flag.StringVar(&fl.groups, "g", "", "捕获组选择：N、\"N M ...\" 或 all（缺省输出整行）")

	flag.StringVar(&fl.lineRange, "l", "", "行区间：N、N-M、N-$、$ 或 $-K")
	flag.BoolVar(&fl.insens, "i", false, "大小写不敏感（锚点、正则与聚合键）")

	flag.IntVar(&fl.omitFirst, "of", -1, "裁剪选段前 n 个字符（0 表示按起始锚点长度）")
	flag.IntVar(&fl.omitLast, "ol", -1, "裁剪选段后 n 个字符（0 表示按结束锚点长度）")
	flag.BoolVar(&fl.omitBoth, "O", false, "同时裁剪两端锚点（各按 token 长度）")

	flag.BoolVar(&fl.unique, "u", false, "去重（保持首次出现顺序）")
	flag.StringVar(&fl.sort, "S", "", "排序方向：asc 或 desc")
	flag.StringVar(&fl.sortBy, "b", "", "排序键：value 或 count（count 需配合 -c）")
	flag.BoolVar(&fl.counts, "c", false, "输出计数聚合（值 + 出现次数）")

	flag.IntVar(&fl.workers, "m", -1, "并行 worker 数（仅纯正则模式；0 表示顺序执行）")
	flag.BoolVar(&fl.status, "status", true, "STDERR 状态提示：TTY 上单行刷新，非 TTY 打点输出")
}

func run() int {
	corrID := uuid.NewString()
	// .env 仅补充缺失的环境变量，不覆盖进程已有值。
	_ = godotenv.Load()

	// 配置确定之前使用空日志器；校验通过后按最终配置重建。
	logger := diag.NewLogger(corrID, "info", "")
	defer func() { _ = logger.Close() }()

	normalizeInitArg()
	var fl cliFlags
	bindFlags(&fl)
	flag.Parse()

	term := diag.NewTerminal(os.Stderr, fl.status)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)

	if args := flag.Args(); len(args) > 0 {
		term.Errorf("多余的位置参数 %q（输入请用 -f 指定）", args[0])
		return 2
	}

	if dir := strings.TrimSpace(fl.initDir); dir != "" {
		if err := initConfig(dir); err != nil {
			term.Errorf("生成默认配置失败: %v", err)
			return 3
		}
		return 0
	}

	// 配置 JSON 来源：内联 ENV > -config > ENV 文件路径 > ./linext.json。
	var cfgJSON []byte
	if s := os.Getenv("LINEXT_CONFIG_JSON"); strings.TrimSpace(s) != "" {
		cfgJSON = []byte(s)
	}
	cfgPath := strings.TrimSpace(fl.config)
	if cfgPath == "" && len(cfgJSON) == 0 {
		if s := strings.TrimSpace(os.Getenv("LINEXT_CONFIG_FILE")); s != "" {
			cfgPath = s
		}
	}
	if cfgPath == "" && len(cfgJSON) == 0 {
		if st, err := os.Stat("linext.json"); err == nil && !st.IsDir() {
			cfgPath = "linext.json"
		}
	}

	cfg := cfgpkg.Defaults()
	if cfgPath != "" || len(cfgJSON) > 0 {
		base, err := cfgpkg.LoadJSON(cfgPath, cfgJSON)
		if err != nil {
			term.Errorf("配置解析失败: %v", err)
			logger.Error("config", diag.Classify(err), err.Error())
			return 3
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		term.Errorf("环境变量覆盖无效: %v", err)
		logger.Error("config", diag.Classify(err), err.Error())
		return 3
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	if err := applyCLI(&cfg, fl); err != nil {
		term.Errorf("命令行参数无效: %v", err)
		logger.Error("config", diag.Classify(err), err.Error())
		return 3
	}

	if err := cfgpkg.Validate(cfg); err != nil {
		term.Errorf("配置校验失败: %v", err)
		_ = dumpConfig(cfg)
		logger.Error("config", diag.Classify(err), err.Error())
		return 3
	}

	// 最终日志级别与目录此刻才可知。
	_ = logger.Close()
	logger = diag.NewLogger(corrID, cfg.Logging.Level, cfg.Logging.Dir)

	if err := preflightOutput(cfg); err != nil {
		term.Errorf("输出目标不可写: %v", err)
		logger.Error("config", diag.Classify(err), err.Error())
		return 3
	}

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		term.Errorf("组件装配失败: %v", err)
		logger.Error("config", diag.Classify(err), err.Error())
		return 3
	}

	logger.Debug("config", "effective", effectiveKV(cfg))

	if err := pipelineRun(context.Background(), comp, set, logger); err != nil {
		// 取消属主动中断，终端已有 [fail] 行，不再重复打印。
		if !errors.Is(err, context.Canceled) {
			term.Errorf("运行失败: %v", err)
		}
		return 1
	}
	return 0
}

// applyCLI 把显式给出的开关写入最终配置。
// 锚点开关直接修补 Start/End 结构，避免整体替换丢失 JSON 层的 token。
func applyCLI(cfg *cfgpkg.Config, fl cliFlags) error {
	if s := strings.TrimSpace(fl.input); s != "" {
		cfg.Input = s
	}
	if s := strings.TrimSpace(fl.output); s != "" {
		cfg.Output = s
	}

	if fl.start != "" {
		if cfg.Start == nil {
			cfg.Start = &contract.AnchorSpec{}
		}
		cfg.Start.Token = fl.start
	}
	if s := strings.TrimSpace(fl.startAt); s != "" {
		occ, err := contract.ParseOccurrence(s)
		if err != nil {
			return fmt.Errorf("-sn: %w", err)
		}
		if cfg.Start == nil {
			cfg.Start = &contract.AnchorSpec{}
		}
		cfg.Start.At = occ
	}
	if fl.end != "" {
		if cfg.End == nil {
			cfg.End = &contract.EndSpec{}
		}
		cfg.End.Token = fl.end
	}
	if s := strings.TrimSpace(fl.endAt); s != "" {
		occ, err := contract.ParseOccurrence(s)
		if err != nil {
			return fmt.Errorf("-en: %w", err)
		}
		if cfg.End == nil {
			cfg.End = &contract.EndSpec{}
		}
		cfg.End.At = occ
	}

	if s := strings.TrimSpace(fl.pattern); s != "" {
		cfg.Pattern = s
	}
	if s := strings.TrimSpace(fl.groups); s != "" {
		cfg.Groups = s
	}
	if s := strings.TrimSpace(fl.lineRange); s != "" {
		cfg.LineRange = s
	}
	if fl.insens {
		cfg.CaseInsensitive = true
	}

	if fl.omitFirst >= 0 {
		cfg.OmitFirst = true
		cfg.OmitFirstCount = fl.omitFirst
	}
	if fl.omitLast >= 0 {
		cfg.OmitLast = true
		cfg.OmitLastCount = fl.omitLast
	}
	if fl.omitBoth {
		cfg.OmitFirst = true
		cfg.OmitLast = true
	}

	if fl.unique {
		cfg.Unique = true
	}
	if s := strings.TrimSpace(fl.sort); s != "" {
		cfg.Sort = s
	}
	if s := strings.TrimSpace(fl.sortBy); s != "" {
		cfg.SortBy = s
	}
	if fl.counts {
		cfg.Counts = true
	}
	if fl.workers >= 0 {
		cfg.Workers = fl.workers
	}
	return nil
}

// effectiveKV 为 debug 日志整理最终配置的概览（不含输出数据）。
func effectiveKV(cfg cfgpkg.Config) map[string]string {
	kv := map[string]string{
		"input":   cfg.Input,
		"output":  cfg.Output,
		"workers": strconv.Itoa(cfg.Workers),
		"source":  effName(cfg.Components.Source),
		"sink":    effName(cfg.Components.Sink),
	}
	if cfg.Start != nil {
		kv["start"] = cfg.Start.Token + "@" + cfg.Start.At.String()
	}
	if cfg.End != nil {
		kv["end"] = cfg.End.Token + "@" + cfg.End.At.String()
	}
	if cfg.Pattern != "" {
		kv["pattern"] = cfg.Pattern
	}
	if cfg.Groups != "" {
		kv["groups"] = cfg.Groups
	}
	if cfg.LineRange != "" {
		kv["range"] = cfg.LineRange
	}
	if cfg.Unique {
		kv["unique"] = "true"
	}
	if cfg.Counts {
		kv["counts"] = "true"
	}
	if cfg.Sort != "" && cfg.Sort != "none" {
		kv["sort"] = cfg.Sort + "/" + cfg.SortBy
	}
	return kv
}

func effName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "fs"
	}
	return name
}

// preflightOutput 在读取任何输入之前确认输出目录可写。
// 仅对文件系统 Sink 且输出非 STDOUT 时生效。
func preflightOutput(cfg cfgpkg.Config) error {
	if effName(cfg.Components.Sink) != "fs" {
		return nil
	}
	out := strings.TrimSpace(cfg.Output)
	if out == "" || out == "-" {
		return nil
	}
	dir := filepath.Dir(out)
	st, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("父路径不是目录: %s", dir)
	}
	f, err := os.CreateTemp(dir, ".linext-wcheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

func initConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeConfig(filepath.Join(dir, "linext.json"), cfgpkg.DefaultTemplateConfig()); err != nil {
		return err
	}
	// .env 失败仅提示，不阻断。
	if err := writeDotEnv(filepath.Join(dir, ".env")); err != nil {
		fprintf(os.Stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
	}
	return nil
}

func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	// 不覆盖已存在文件
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return err
	}
	_, _ = f.Write([]byte("\n"))
	return nil
}

func writeDotEnv(path string) error {
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		// 已存在直接跳过
		return nil
	} else if err != nil && !os.IsNotExist(err) {
		return err
	}

	var b strings.Builder
	b.WriteString("# linext .env 模板（由 -init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > JSON > 默认值\n")
	b.WriteString("# 空值表示未设置；按需填写。\n\n")

	b.WriteString("# 配置来源（可二选一）\n")
	b.WriteString("LINEXT_CONFIG_FILE=\n")
	b.WriteString("LINEXT_CONFIG_JSON=\n\n")

	b.WriteString("# 运行参数覆盖\n")
	b.WriteString("LINEXT_INPUT=\n")
	b.WriteString("LINEXT_OUTPUT=\n")
	b.WriteString("LINEXT_LINE_RANGE=\n")
	b.WriteString("LINEXT_WORKERS=\n")
	b.WriteString("LINEXT_CHUNK_LINES=\n\n")

	b.WriteString("# 日志\n")
	b.WriteString("LINEXT_LOG_LEVEL=\n")
	b.WriteString("LINEXT_LOG_DIR=\n")
	b.WriteString("\n")

	// 写入（不覆盖）
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return err
	}
	return nil
}

func dumpConfig(c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, _ = os.Stderr.Write(append([]byte("有效配置:\n"), b...))
	_, _ = os.Stderr.Write([]byte("\n"))
	return nil
}

// normalizeInitArg 允许 -init-config 不带值使用：
// 当其后没有值（行尾或紧跟另一开关）时补默认目录 "."。
func normalizeInitArg() {
	args := os.Args
	if len(args) <= 1 {
		return
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	for i := 1; i < len(args); i++ {
		a := args[i]
		out = append(out, a)
		if a == "--init-config" || a == "-init-config" {
			if i == len(args)-1 {
				out = append(out, ".")
				continue
			}
			if strings.HasPrefix(args[i+1], "-") {
				out = append(out, ".")
				continue
			}
		}
	}
	os.Args = out
}

func fprintf(w *os.File, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }
