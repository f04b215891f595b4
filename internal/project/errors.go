package project

import "errors"

// 前置校验失败属于致命错误,必须在任何目录改动或子进程执行之前返回。
var (
	// ErrMultipleLockfiles 表示构建目录同时存在多个管理器的锁文件,
	// 依赖树归属不明,继续安装只会产出不可复现的结果。
	ErrMultipleLockfiles = errors.New("multiple package manager lockfiles present")

	// ErrManifestMissing 表示构建目录没有 package.json,不是 Node 项目。
	ErrManifestMissing = errors.New("package.json not found")

	// ErrManifestInvalid 表示 package.json 无法解析。
	ErrManifestInvalid = errors.New("package.json is not valid")

	// ErrNestedPlatformDir 表示构建目录里嵌套了平台工作目录,
	// 通常意味着把上一次构建的产物又提交了进来。
	ErrNestedPlatformDir = errors.New("nested platform directory present")
)
