package promote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/John-Robertt/snapaccept/internal/app/planner"
	"github.com/John-Robertt/snapaccept/internal/config"
	"github.com/John-Robertt/snapaccept/internal/domain"
	"github.com/John-Robertt/snapaccept/internal/infra/fsx"
	"github.com/John-Robertt/snapaccept/internal/scan"
)

// 测试可替换，用来模拟单个文件移动失败。
var renameFunc = fsx.Rename

// Execute 执行一次晋升（dry-run/apply），并返回对外稳定的 RunReport。
// 扫描失败是致命的（不做任何移动）；单个文件失败只影响该条目。
func Execute(ctx context.Context, eff config.EffectiveConfig) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出每条结果（由上层决定如何展示）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, obs Observer) domain.RunReport {
	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Root:      eff.Root,
		DryRun:    eff.DryRun,
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.ItemResult, 0, 32),
	}

	scanStarted := time.Now()
	root, err := scan.ResolveRoot(eff.Root)
	if err != nil {
		return scanFailed(rr, err)
	}
	rr.Root = root

	files, dirFailures, err := scan.ScanPending(root, eff.ExcludeDirs)
	if err != nil {
		return scanFailed(rr, err)
	}
	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{
			"pending":    len(files),
			"dir_failed": len(dirFailures),
		}, time.Since(scanStarted))
	}

	planStarted := time.Now()
	plans := make([]domain.Promotion, 0, len(files))
	failed := make([]domain.ItemResult, 0, len(dirFailures))
	for _, df := range dirFailures {
		failed = append(failed, dirFailedItem(df))
	}
	conflicts := 0
	replaces := 0
	for _, f := range files {
		p, e := planner.PlanPromotion(root, f)
		if e != nil {
			failed = append(failed, failedItem(p, f, e))
			conflicts++
			continue
		}
		if p.Replaces {
			replaces++
		}
		plans = append(plans, p)
	}
	planner.SortPlans(plans)
	if obs != nil {
		obs.OnPhaseDone("plan", map[string]any{
			"promotions": len(plans),
			"replaces":   replaces,
			"conflicts":  conflicts,
		}, time.Since(planStarted))
	}

	total := len(plans) + len(failed)
	done := 0
	emit := func(res domain.ItemResult, dur time.Duration) {
		done++
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnItemDone(done, total, res, dur)
		}
	}
	for _, it := range failed {
		emit(it, 0)
	}

	// dry-run：只输出计划，不移动。
	if eff.DryRun {
		for _, p := range plans {
			it := itemFor(p)
			it.Status = domain.StatusPlanned
			emit(it, 0)
		}
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	// 执行阶段：每个文件的目标只由自身文件名推导，互不冲突，可直接并发。
	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}
	if obs != nil {
		obs.OnPhaseDone("exec", map[string]any{
			"workers": workers,
			"total":   len(plans),
		}, 0)
	}

	type execResult struct {
		res domain.ItemResult
		dur time.Duration
	}

	jobs := make(chan domain.Promotion)
	results := make(chan execResult, len(plans))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				started := time.Now()
				r := execOne(ctx, p)
				results <- execResult{res: r, dur: time.Since(started)}
			}
		}()
	}

	go func() {
		for _, p := range plans {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for r := range results {
		emit(r.res, r.dur)
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func execOne(ctx context.Context, p domain.Promotion) domain.ItemResult {
	item := itemFor(p)

	if err := ctx.Err(); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeCanceled
		item.ErrorMsg = fmt.Sprintf("未执行 %q：%v", p.SrcRel, err)
		return item
	}

	if err := renameFunc(p.SrcAbs, p.DstAbs); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = errorCode(err)
		item.ErrorMsg = fmt.Sprintf("移动 %q -> %q 失败：%v", p.SrcRel, p.DstRel, err)
		return item
	}

	item.Status = domain.StatusAccepted
	return item
}

func itemFor(p domain.Promotion) domain.ItemResult {
	return domain.ItemResult{
		Stem:     p.Stem,
		Src:      p.SrcRel,
		Dst:      p.DstRel,
		Replaces: p.Replaces,
	}
}

func failedItem(p domain.Promotion, f domain.PendingFile, err error) domain.ItemResult {
	it := itemFor(p)
	// 规划失败时 p 可能只填了一部分，用扫描结果兜底定位信息。
	it.Stem = f.Stem
	it.Src = f.RelPath
	it.Status = domain.StatusFailed
	it.ErrorCode = domain.ErrCodeIOFailed
	if fsx.IsPathTypeConflict(err) {
		it.ErrorCode = domain.ErrCodeTargetConflict
	}
	it.ErrorMsg = fmt.Sprintf("规划 %q 失败：%v", f.RelPath, err)
	return it
}

func errorCode(err error) string {
	switch {
	case fsx.IsPathTypeConflict(err):
		return domain.ErrCodeTargetConflict
	case fsx.IsCrossDevice(err):
		return domain.ErrCodeCrossDevice
	default:
		return domain.ErrCodeMoveFailed
	}
}

// scanFailed 处理致命的扫描错误：只产出一条合成失败，不做任何移动。
func scanFailed(rr domain.RunReport, err error) domain.RunReport {
	rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err)))
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func dirFailedItem(df domain.DirFailure) domain.ItemResult {
	return domain.ItemResult{
		Src:       df.RelPath,
		Status:    domain.StatusFailed,
		ErrorCode: domain.ErrCodeIOFailed,
		ErrorMsg:  fmt.Sprintf("读取目录 %q 失败，已跳过：%v", df.RelPath, df.Err),
	}
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}
