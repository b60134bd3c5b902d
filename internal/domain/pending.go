package domain

// PendingFile 描述一次扫描得到的待确认快照文件（<stem>.received.txt）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - Dir 为 AbsPath 所在目录；Stem 为去掉后缀后的文件名
// - 扫描阶段只做 stat，不读文件内容
type PendingFile struct {
	AbsPath string
	RelPath string
	Dir     string
	Stem    string
}

// DirFailure 记录扫描中无法读取的子目录（root 本身读取失败属于致命错误，不在此列）。
type DirFailure struct {
	AbsPath string
	RelPath string
	Err     error
}
