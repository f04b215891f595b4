package pkgmanager

// Metadata 记录一个包管理器的静态信息,供策略选择和流水线拼装命令使用。
// Key 同时是注册键和可执行文件名。
type Metadata struct {
	Key               string
	Description       string
	Lockfile          string
	EngineField       string
	ToleratesPrebuilt bool
	VersionArgs       []string
	InstallArgs       []string
	RebuildArgs       []string
	ListArgs          []string
}

// RunScriptArgs 返回执行 package.json scripts 条目的命令参数。
func (m Metadata) RunScriptArgs(script string) []string {
	return []string{"run", script}
}

// DefaultManagerKey 返回没有锁文件线索时使用的默认管理器键值。
func DefaultManagerKey() string {
	return defaultManagerKey
}
