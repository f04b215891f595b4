// Package project 负责读取构建目录的事实状态:清单内容、锁文件归属、
// 应用自带的 node_modules,以及安装开始前必须满足的前置条件。
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/modprep/modprep/internal/fsutil"
	"github.com/modprep/modprep/internal/pkgmanager"
)

// ModulesDir 是依赖安装的目标目录名。
const ModulesDir = "node_modules"

// 用户生命周期钩子在清单 scripts 里的固定条目名。
const (
	PreHookScript  = "modprep-prebuild"
	PostHookScript = "modprep-postbuild"
)

// nestedPlatformDir 出现在构建目录里说明上次构建的工作目录被打包了进来。
const nestedPlatformDir = ".modprep"

// BuildContext 聚合一次构建的输入目录与探测结果,在进入流水线前构建
// 一次,之后只读;唯一的例外是流水线丢弃自带 node_modules 后回写探测位。
type BuildContext struct {
	BuildDir string
	CacheDir string
	EnvDir   string
	BuildID  string

	Manifest *Manifest
	Warnings []string

	// LockManager 是锁文件对应的管理器键值,没有锁文件时为空。
	LockManager        string
	HasPrebuiltModules bool
}

// NewContext 探测构建目录并完成全部前置校验。返回错误时目录尚未被
// 改动过,调用方可以直接中止构建。
func NewContext(buildDir, cacheDir, envDir string) (*BuildContext, error) {
	info, err := os.Stat(buildDir)
	if err != nil {
		return nil, fmt.Errorf("构建目录不可访问: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("构建目录不是目录: %s", buildDir)
	}

	if fsutil.DirExists(filepath.Join(buildDir, nestedPlatformDir)) {
		return nil, fmt.Errorf("%w: %s", ErrNestedPlatformDir, nestedPlatformDir)
	}

	manifest, err := ParseManifest(filepath.Join(buildDir, ManifestFileName))
	if err != nil {
		return nil, err
	}

	lockManager, err := detectLockManager(buildDir)
	if err != nil {
		return nil, err
	}

	ctx := &BuildContext{
		BuildDir:           buildDir,
		CacheDir:           cacheDir,
		EnvDir:             envDir,
		BuildID:            uuid.NewString(),
		Manifest:           manifest,
		LockManager:        lockManager,
		HasPrebuiltModules: fsutil.DirExists(filepath.Join(buildDir, ModulesDir)),
	}
	ctx.collectWarnings()

	return ctx, nil
}

// UsesYarnLock 表示构建目录携带 yarn.lock。
func (c *BuildContext) UsesYarnLock() bool {
	return c.LockManager == "yarn"
}

// UsesNpmLock 表示构建目录携带 package-lock.json。
func (c *BuildContext) UsesNpmLock() bool {
	return c.LockManager == "npm"
}

// MarkModulesDiscarded 在流水线删除自带 node_modules 后重新探测目录,
// 保持上下文与磁盘一致。
func (c *BuildContext) MarkModulesDiscarded() {
	c.HasPrebuiltModules = fsutil.DirExists(filepath.Join(c.BuildDir, ModulesDir))
}

// detectLockManager 按注册表逐个检查锁文件。发现多于一个管理器的
// 锁文件时必须立刻失败,依赖树归属已经说不清了。
func detectLockManager(buildDir string) (string, error) {
	found := make([]string, 0, 1)
	for _, meta := range pkgmanager.List() {
		if fileExists(filepath.Join(buildDir, meta.Lockfile)) {
			found = append(found, meta.Key)
		}
	}

	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %v", ErrMultipleLockfiles, found)
	}
}

func (c *BuildContext) collectWarnings() {
	if c.HasPrebuiltModules {
		c.Warnings = append(c.Warnings, "prebuilt node_modules found in the build directory")
	}
	if c.Manifest.Engines.Node == "" {
		c.Warnings = append(c.Warnings, "package.json has no engines.node entry, runtime version falls back to the platform default")
	}
	if c.UsesNpmLock() {
		c.Warnings = append(c.Warnings, lockfileMetadataWarnings(c.BuildDir)...)
	}
}

// lockfileMetadataWarnings 检查 package-lock.json 的 lockfileVersion,
// 太旧的锁文件在新 npm 下经常触发整树重算。
func lockfileMetadataWarnings(buildDir string) []string {
	meta, ok := pkgmanager.Resolve("npm")
	if !ok {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(buildDir, meta.Lockfile))
	if err != nil {
		return []string{fmt.Sprintf("%s could not be read: %v", meta.Lockfile, err)}
	}

	var lock struct {
		LockfileVersion int `json:"lockfileVersion"`
	}
	if err := json.Unmarshal(data, &lock); err != nil {
		return []string{fmt.Sprintf("%s could not be parsed: %v", meta.Lockfile, err)}
	}
	if lock.LockfileVersion < 2 {
		return []string{fmt.Sprintf("%s uses lockfileVersion %d, regenerate it with a current npm", meta.Lockfile, lock.LockfileVersion)}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
