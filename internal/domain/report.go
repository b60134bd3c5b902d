package domain

import (
	"sort"
	"time"
)

const (
	StatusAccepted = "accepted"
	StatusPlanned  = "planned"
	StatusFailed   = "failed"
)

const (
	ErrCodeIOFailed       = "io_failed"
	ErrCodeMoveFailed     = "move_failed"
	ErrCodeCrossDevice    = "cross_device"
	ErrCodeTargetConflict = "target_conflict"
	ErrCodeCanceled       = "canceled"
	ErrCodeConfigInvalid  = "config_invalid"
)

// RunReport 是对外稳定输出（--json / --report）的结构。
type RunReport struct {
	Root   string `json:"root"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Accepted int `json:"accepted"`
	Planned  int `json:"planned"`
	Failed   int `json:"failed"`
	Replaced int `json:"replaced"`
}

type ItemResult struct {
	Stem string `json:"stem"`
	Src  string `json:"src"`
	Dst  string `json:"dst"`

	Replaces bool   `json:"replaces"`
	Status   string `json:"status"`

	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 src 字典序；src=="" 的合成条目排在最后
// 3) summary 由 items 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Items == nil {
		r.Items = []ItemResult{}
	}

	sort.SliceStable(r.Items, func(i, j int) bool {
		a := r.Items[i].Src
		b := r.Items[j].Src
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusAccepted:
			s.Accepted++
			if it.Replaces {
				s.Replaced++
			}
		case StatusPlanned:
			s.Planned++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}

// OK 表示本次运行没有任何失败条目（决定退出码）。
func (r RunReport) OK() bool {
	return r.Summary.Failed == 0
}
