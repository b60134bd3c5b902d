package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/snapaccept/internal/baseline"
	"github.com/John-Robertt/snapaccept/internal/domain"
)

// ResolveRoot 把 root 规范化为 clean + 符号链接已解析的目录路径。
//
// filepath.WalkDir 对起点只做 Lstat；若 root 本身是指向目录的符号链接，
// 不先解析就会被当作非目录跳过，整次运行静默变成空操作。
func ResolveRoot(root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(filepath.Clean(root))
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("根路径不是目录：%q", root)
	}
	return resolved, nil
}

// ScanPending 递归扫描 root 下所有待确认文件（<stem>.received.txt），并应用目录排除规则。
//
// 规则（硬约束）：
// - root 必须存在且是目录（符号链接会先被解析），否则直接返回错误（此时尚未做任何移动）
// - 子目录读取失败不中断扫描：记为 DirFailure 并跳过该目录，其余目录照常收集
// - 只收集普通文件；符号链接/设备/目录一律跳过
// - 后缀匹配逐字节、区分大小写
// - excludeDirs：来自配置文件，均视为相对 root 的路径（若是绝对路径，则按绝对路径处理）
//
// RelPath 相对解析后的 root 计算。扫描阶段只做 stat（DirEntry.Type），不读文件内容。
func ScanPending(root string, excludeDirs []string) ([]domain.PendingFile, []domain.DirFailure, error) {
	root, err := ResolveRoot(root)
	if err != nil {
		return nil, nil, err
	}

	excluded := buildExcluded(root, excludeDirs)

	files := make([]domain.PendingFile, 0, 32)
	var failures []domain.DirFailure
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			rel, _ := filepath.Rel(root, path)
			failures = append(failures, domain.DirFailure{AbsPath: path, RelPath: rel, Err: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		stem, ok := baseline.Stem(d.Name())
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		files = append(files, domain.PendingFile{
			AbsPath: path,
			RelPath: rel,
			Dir:     filepath.Dir(path),
			Stem:    stem,
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	sort.Slice(failures, func(i, j int) bool { return failures[i].RelPath < failures[j].RelPath })
	return files, failures, nil
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
