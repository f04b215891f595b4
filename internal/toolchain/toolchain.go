// Package toolchain 探测当前构建可用的 Node 运行时与包管理器版本,
// 为指纹计算提供输入。版本范围的解析与运行时下载不在本仓库内。
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modprep/modprep/internal/pkgmanager"
	"github.com/modprep/modprep/internal/runner"
	"github.com/modprep/modprep/internal/signature"
)

// runtimeBinary 是 Node 运行时的可执行文件名。
const runtimeBinary = "node"

// ErrRuntimeMissing 表示沙箱里没有可用的 Node 运行时。
var ErrRuntimeMissing = errors.New("node runtime not available")

// Resolve 探测运行时与管理器版本并组装工具链描述。managerKey 必须是
// 已注册的管理器。
func Resolve(ctx context.Context, r runner.Runner, managerKey, stack string) (signature.Toolchain, error) {
	meta, ok := pkgmanager.Resolve(managerKey)
	if !ok {
		return signature.Toolchain{}, fmt.Errorf("unknown package manager: %s", managerKey)
	}

	runtimeVersion, err := probeVersion(ctx, r, runtimeBinary, []string{"--version"})
	if err != nil {
		return signature.Toolchain{}, fmt.Errorf("probe %s version: %w", runtimeBinary, err)
	}

	managerVersion, err := probeVersion(ctx, r, meta.Key, meta.VersionArgs)
	if err != nil {
		return signature.Toolchain{}, fmt.Errorf("probe %s version: %w", meta.Key, err)
	}

	return signature.Toolchain{
		RuntimeVersion: runtimeVersion,
		ManagerKey:     meta.Key,
		ManagerVersion: managerVersion,
		Stack:          stack,
	}, nil
}

// probeVersion 执行版本命令并取第一行非空输出。
func probeVersion(ctx context.Context, r runner.Runner, name string, args []string) (string, error) {
	res, err := r.Run(ctx, runner.Command{Name: name, Args: args})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s exited with code %d", name, res.ExitCode)
	}
	for _, line := range res.Output {
		if v := strings.TrimSpace(line); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s printed no version", name)
}
