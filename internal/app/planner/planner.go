package planner

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/John-Robertt/snapaccept/internal/baseline"
	"github.com/John-Robertt/snapaccept/internal/domain"
	"github.com/John-Robertt/snapaccept/internal/infra/fsx"
)

// PlanPromotion 为单个待确认文件生成晋升计划（不做任何写入/移动）。
//
// 目标路径只由文件名推导：同目录 + <stem>.verified.txt。
// 目标已存在时记录 Replaces=true；目标为目录等非普通文件时返回 *fsx.PathTypeConflictError。
func PlanPromotion(root string, f domain.PendingFile) (domain.Promotion, error) {
	dstAbs, ok := baseline.Target(f.AbsPath)
	if !ok {
		return domain.Promotion{}, fmt.Errorf("不是待确认文件：%q", f.AbsPath)
	}

	dstRel, err := filepath.Rel(root, dstAbs)
	if err != nil {
		dstRel = dstAbs
	}

	p := domain.Promotion{
		Stem:   f.Stem,
		SrcAbs: f.AbsPath,
		DstAbs: dstAbs,
		SrcRel: f.RelPath,
		DstRel: dstRel,
	}

	exists, err := fsx.StatReplaceable(dstAbs)
	if err != nil {
		return p, err
	}
	p.Replaces = exists
	return p, nil
}

// SortPlans 让上层在需要时可显式保证稳定顺序。
func SortPlans(plans []domain.Promotion) {
	sort.Slice(plans, func(i, j int) bool { return plans[i].SrcRel < plans[j].SrcRel })
}
