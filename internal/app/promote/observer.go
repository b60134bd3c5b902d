package promote

import (
	"time"

	"github.com/John-Robertt/snapaccept/internal/config"
	"github.com/John-Robertt/snapaccept/internal/domain"
)

// Observer 用于把“阶段/条目结果”从核心执行流程中解耦出来。
//
// 约束：
// - promote 包只负责发事件，不做任何输出。
// - Observer 的实现必须并发安全：concurrency>1 时事件可能来自多个 goroutine。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束/就绪时调用（scan/plan/exec）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在单个文件处理完成时调用（accepted/planned/failed 都会触发）。
	OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration)
}
