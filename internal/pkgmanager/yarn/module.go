// Package yarn 注册 yarn 管理器的锁文件与命令元数据,通过 yarn.lock 被选中。
package yarn

import "github.com/modprep/modprep/internal/pkgmanager"

// yarn 的安装假设 node_modules 完全由它管理,应用自带的目录必须先丢弃,
// 因此 ToleratesPrebuilt 为 false。
func init() {
	pkgmanager.MustRegister(pkgmanager.Metadata{
		Key:               "yarn",
		Description:       "yarn manager, requires exclusive ownership of node_modules",
		Lockfile:          "yarn.lock",
		EngineField:       "yarn",
		ToleratesPrebuilt: false,
		VersionArgs:       []string{"--version"},
		InstallArgs:       []string{"install", "--pure-lockfile"},
		ListArgs:          []string{"list", "--depth=0"},
	})
}
