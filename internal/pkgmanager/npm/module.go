// Package npm 注册 npm 管理器的锁文件与命令元数据,它是没有锁文件线索时的默认选择。
package npm

import "github.com/modprep/modprep/internal/pkgmanager"

// npm 能直接基于应用自带的 node_modules 做 rebuild,因此 ToleratesPrebuilt 为 true。
func init() {
	pkgmanager.MustRegister(pkgmanager.Metadata{
		Key:               "npm",
		Description:       "npm manager, rebuilds bundled node_modules instead of discarding them",
		Lockfile:          "package-lock.json",
		EngineField:       "npm",
		ToleratesPrebuilt: true,
		VersionArgs:       []string{"--version"},
		InstallArgs:       []string{"install", "--unsafe-perm", "--quiet"},
		RebuildArgs:       []string{"rebuild"},
		ListArgs:          []string{"ls", "--depth=0"},
	})
}
