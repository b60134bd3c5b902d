package domain

// Promotion 规划一次“received -> verified”的晋升（只描述 src/dst，不做移动）。
type Promotion struct {
	Stem string

	SrcAbs string
	DstAbs string
	SrcRel string
	DstRel string

	// Replaces 表示规划时目标位置已存在旧基线（只用于报告；移动语义相同）。
	Replaces bool
}
