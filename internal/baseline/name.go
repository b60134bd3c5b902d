package baseline

import (
	"path/filepath"
	"strings"
)

const (
	// PendingSuffix 是快照工具写出的待确认结果后缀。
	PendingSuffix = ".received.txt"
	// VerifiedSuffix 是已确认基线的后缀。
	VerifiedSuffix = ".verified.txt"
)

// Stem 判断 name 是否以 PendingSuffix 结尾（逐字节、区分大小写），并返回去掉后缀的部分。
//
// 例：
// - "foo.received.txt"     -> "foo", true
// - "foo.RECEIVED.TXT"     -> "", false
// - "foo.received.txt.old" -> "", false
func Stem(name string) (string, bool) {
	if !strings.HasSuffix(name, PendingSuffix) {
		return "", false
	}
	return name[:len(name)-len(PendingSuffix)], true
}

// VerifiedName 返回 stem 对应的基线文件名。
func VerifiedName(stem string) string {
	return stem + VerifiedSuffix
}

// Target 把待确认文件路径映射为同目录下的基线路径。
// 映射纯粹基于文件名，不读内容；path 不是待确认文件时返回 false。
func Target(path string) (string, bool) {
	stem, ok := Stem(filepath.Base(path))
	if !ok {
		return "", false
	}
	return filepath.Join(filepath.Dir(path), VerifiedName(stem)), true
}
