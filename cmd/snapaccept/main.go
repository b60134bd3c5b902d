package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/John-Robertt/snapaccept/internal/app/promote"
	"github.com/John-Robertt/snapaccept/internal/config"
	"github.com/John-Robertt/snapaccept/internal/domain"
	"github.com/John-Robertt/snapaccept/internal/infra/fsx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := runCmd(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if code != 0 {
		os.Exit(code)
	}
}

func runCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	for _, a := range args {
		if isHelp(a) {
			printUsage(stdout)
			return 0
		}
	}

	ra, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
		printUsage(stderr)
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Root:           ra.Root,
		DryRun:         ra.DryRun,
		DryRunSet:      ra.DryRunSet,
		Concurrency:    ra.Concurrency,
		ConcurrencySet: ra.ConcurrencySet,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	// --json 时 stdout 只输出一个 RunReport JSON；逐条通知不再写 stdout。
	var obs promote.Observer
	if !ra.JSON {
		var phaseW io.Writer
		if ra.Verbose {
			phaseW = stderr
		}
		obs = newNoticeUI(stdout, phaseW)
	}

	rr := promote.ExecuteWithObserver(ctx, eff, obs)

	code := 0
	if !rr.OK() {
		code = 1
	}

	if ra.ReportPath != "" && !eff.DryRun {
		if err := writeReportFile(cwd, ra.ReportPath, rr); err != nil {
			fmt.Fprintf(stderr, "写入报告失败：%v\n", err)
			code = 1
		}
	}

	emitReport(stdout, stderr, rr, ra.JSON)
	return code
}

type runArgs struct {
	Root string

	DryRun    bool
	DryRunSet bool

	Concurrency    int
	ConcurrencySet bool

	JSON       bool
	Verbose    bool
	ReportPath string
}

func parseArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--dry-run":
			ra.DryRun = true
			ra.DryRunSet = true
		case strings.HasPrefix(a, "--dry-run="):
			v := strings.TrimPrefix(a, "--dry-run=")
			b, err := strconv.ParseBool(v)
			if err != nil {
				return runArgs{}, fmt.Errorf("--dry-run 只能是 true 或 false，实际是 %q", v)
			}
			ra.DryRun = b
			ra.DryRunSet = true
		case a == "--concurrency" || a == "-j":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("%s 需要一个值", a)
			}
			i++
			n, err := parsePositive(a, args[i])
			if err != nil {
				return runArgs{}, err
			}
			ra.Concurrency = n
			ra.ConcurrencySet = true
		case strings.HasPrefix(a, "--concurrency="):
			n, err := parsePositive("--concurrency", strings.TrimPrefix(a, "--concurrency="))
			if err != nil {
				return runArgs{}, err
			}
			ra.Concurrency = n
			ra.ConcurrencySet = true
		case a == "--report":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("--report 需要一个值")
			}
			i++
			ra.ReportPath = args[i]
		case strings.HasPrefix(a, "--report="):
			ra.ReportPath = strings.TrimPrefix(a, "--report=")
			if ra.ReportPath == "" {
				return runArgs{}, fmt.Errorf("--report 不能为空")
			}
		case a == "--json":
			ra.JSON = true
		case a == "-v" || a == "--verbose":
			ra.Verbose = true
		case a == "--":
			// 之后的参数一律视为 root。
			for _, rest := range args[i+1:] {
				if err := setRoot(&ra, rest); err != nil {
					return runArgs{}, err
				}
			}
			return ra, nil
		case strings.HasPrefix(a, "-"):
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if err := setRoot(&ra, a); err != nil {
				return runArgs{}, err
			}
		}
	}

	return ra, nil
}

func setRoot(ra *runArgs, p string) error {
	if ra.Root != "" {
		return fmt.Errorf("重复的 root：%q 与 %q", ra.Root, p)
	}
	ra.Root = p
	return nil
}

func parsePositive(flag, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s 必须是正整数，实际是 %q", flag, v)
	}
	return n, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  snapaccept [root] [--dry-run[=true|false]] [--concurrency N] [--json] [--report FILE] [-v]

把 root（默认当前目录）下所有 *.received.txt 重命名为同目录的 *.verified.txt（覆盖旧基线）。

参数：
  --dry-run          只列出将被确认的文件，不移动
  -j, --concurrency  并发移动的 worker 数（默认 1，上限 32）
  --json             stdout 只输出一个 JSON 报告（不再逐行输出 accepted）
  --report           把 JSON 报告原子写入 FILE（dry-run 时不写）
  -v, --verbose      在 stderr 输出阶段统计
  -h, --help         显示帮助

可选配置文件 <root>/snapaccept.json：{"exclude_dirs": [...], "concurrency": N, "dry_run": bool}
`)
}

func emitReport(stdout, stderr io.Writer, rr domain.RunReport, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rr)
	}

	for _, it := range rr.Items {
		if it.Status != domain.StatusFailed {
			continue
		}
		key := it.Src
		if key == "" {
			key = rr.Root
		}
		fmt.Fprintf(stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
	}

	// 摘要只在交互终端输出，避免干扰管道/CI 对 stderr 的解析。
	if isTTY(stderr) {
		fmt.Fprintf(stderr, "完成：accepted=%d planned=%d failed=%d replaced=%d\n",
			rr.Summary.Accepted, rr.Summary.Planned, rr.Summary.Failed, rr.Summary.Replaced,
		)
	}
}

func writeReportFile(cwd, p string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	if !filepath.IsAbs(p) {
		p = filepath.Join(cwd, p)
	}
	return fsx.WriteFileAtomicReplace(filepath.Dir(p), filepath.Base(p), b)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
