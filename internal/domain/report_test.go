package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRunReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := RunReport{
		Root:       "/abs/root",
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Items: []ItemResult{
			{Src: "b/b.received.txt", Status: StatusAccepted, Replaces: true},
			{Src: "", Status: StatusFailed}, // 扫描失败等合成项
			{Src: "a.received.txt", Status: StatusAccepted},
			{Src: "c.received.txt", Status: StatusFailed},
		},
	}

	r.Finalize()

	got := []string{r.Items[0].Src, r.Items[1].Src, r.Items[2].Src, r.Items[3].Src}
	want := []string{"a.received.txt", "b/b.received.txt", "c.received.txt", ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("items 排序不符合契约 (-want +got):\n%s", diff)
	}

	wantSum := ReportSummary{Accepted: 2, Failed: 2, Replaced: 1}
	if diff := cmp.Diff(wantSum, r.Summary); diff != "" {
		t.Fatalf("summary 统计不正确 (-want +got):\n%s", diff)
	}
	if r.OK() {
		t.Fatalf("存在失败条目时 OK() 应为 false")
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
}

func TestRunReport_Finalize_NilItemsEncodeAsEmptyArray(t *testing.T) {
	var r RunReport
	r.Finalize()

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte("\"items\":[]")) {
		t.Fatalf("items 应输出为 []：%s", string(b))
	}
	if !r.OK() {
		t.Fatalf("空报告应视为成功")
	}
}
