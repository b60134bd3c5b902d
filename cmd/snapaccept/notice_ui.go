package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/John-Robertt/snapaccept/internal/app/promote"
	"github.com/John-Robertt/snapaccept/internal/config"
	"github.com/John-Robertt/snapaccept/internal/domain"
)

var _ promote.Observer = (*noticeUI)(nil)

// noticeUI 把每次晋升输出为一行 "accepted <stem>"（后跟空行）。
// 失败条目不在这里输出，由 emitReport 统一写 stderr。
type noticeUI struct {
	out   io.Writer
	phase io.Writer // nil 表示不输出阶段统计

	mu     sync.Mutex
	dryRun bool
}

func newNoticeUI(out, phase io.Writer) *noticeUI {
	return &noticeUI{out: out, phase: phase}
}

func (n *noticeUI) OnStart(eff config.EffectiveConfig) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.dryRun = eff.DryRun
	if n.phase == nil {
		return
	}
	mode := "apply"
	if eff.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(n.phase, "[%s] snapaccept (%s)\n", time.Now().Format("15:04:05"), mode)
	fmt.Fprintf(n.phase, "  root: %s\n", eff.Root)
	fmt.Fprintf(n.phase, "  concurrency: %d\n", eff.Concurrency)
	if len(eff.ExcludeDirs) > 0 {
		fmt.Fprintf(n.phase, "  exclude_dirs: %v\n", eff.ExcludeDirs)
	}
}

func (n *noticeUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.phase == nil {
		return
	}
	switch name {
	case "scan":
		fmt.Fprintf(n.phase, "扫描: pending=%d dir_failed=%d (%s)\n", intField(fields, "pending"), intField(fields, "dir_failed"), formatShortDuration(dur))
	case "plan":
		fmt.Fprintf(n.phase, "规划: promotions=%d replaces=%d conflicts=%d (%s)\n",
			intField(fields, "promotions"), intField(fields, "replaces"), intField(fields, "conflicts"), formatShortDuration(dur),
		)
	case "exec":
		fmt.Fprintf(n.phase, "执行: workers=%d total=%d\n", intField(fields, "workers"), intField(fields, "total"))
	default:
		fmt.Fprintf(n.phase, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (n *noticeUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch res.Status {
	case domain.StatusAccepted:
		fmt.Fprintf(n.out, "accepted %s\n\n", res.Stem)
	case domain.StatusPlanned:
		fmt.Fprintf(n.out, "would accept %s\n\n", res.Stem)
	}
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch v := fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func formatShortDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
