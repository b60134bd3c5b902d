//go:build unix

package promote

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/snapaccept/internal/domain"
)

func TestExecute_SymlinkRoot(t *testing.T) {
	base := t.TempDir()
	orig := filepath.Join(base, "orig")
	writeFile(t, filepath.Join(orig, "sub", "foo.received.txt"), "A")
	link := filepath.Join(base, "link")
	if err := os.Symlink(orig, link); err != nil {
		t.Skipf("当前环境不支持 symlink：%v", err)
	}

	rr := Execute(context.Background(), cfg(link))

	if !rr.OK() || rr.Summary.Accepted != 1 {
		t.Fatalf("符号链接根目录也应被处理：summary=%+v items=%+v", rr.Summary, rr.Items)
	}
	it := rr.Items[0]
	if it.Src != filepath.Join("sub", "foo.received.txt") || it.Dst != filepath.Join("sub", "foo.verified.txt") {
		t.Fatalf("路径应相对解析后的 root：%+v", it)
	}
	assertContent(t, filepath.Join(orig, "sub", "foo.verified.txt"), "A")
	assertMissing(t, filepath.Join(orig, "sub", "foo.received.txt"))
}

func TestExecute_SymlinkBaselineIsOverwritten(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "old.txt"), "B")
	writeFile(t, filepath.Join(root, "foo.received.txt"), "A")
	if err := os.Symlink(filepath.Join(root, "old.txt"), filepath.Join(root, "foo.verified.txt")); err != nil {
		t.Skipf("当前环境不支持 symlink：%v", err)
	}

	rr := Execute(context.Background(), cfg(root))

	if !rr.OK() || rr.Summary.Accepted != 1 || rr.Summary.Replaced != 1 {
		t.Fatalf("符号链接基线应被覆盖：summary=%+v items=%+v", rr.Summary, rr.Items)
	}
	assertMissing(t, filepath.Join(root, "foo.received.txt"))
	assertContent(t, filepath.Join(root, "foo.verified.txt"), "A")
	assertContent(t, filepath.Join(root, "old.txt"), "B")
}

func TestExecute_UnreadableSubdir_OthersPromoted(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root 用户不受目录权限限制")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok", "a.received.txt"), "A")
	writeFile(t, filepath.Join(root, "locked", "b.received.txt"), "B")
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod 失败：%v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	rr := Execute(context.Background(), cfg(root))

	if rr.OK() || rr.Summary.Failed != 1 || rr.Summary.Accepted != 1 {
		t.Fatalf("summary 不符合预期：%+v items=%+v", rr.Summary, rr.Items)
	}
	var dirItem domain.ItemResult
	for _, it := range rr.Items {
		if it.Status == domain.StatusFailed {
			dirItem = it
		}
	}
	if dirItem.Src != "locked" || dirItem.ErrorCode != domain.ErrCodeIOFailed {
		t.Fatalf("失败条目应指明不可读目录：%+v", dirItem)
	}
	assertContent(t, filepath.Join(root, "ok", "a.verified.txt"), "A")
}
