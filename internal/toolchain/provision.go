package toolchain

import (
	"context"
	"fmt"

	"github.com/modprep/modprep/internal/runner"
)

// Provisioner 负责保证沙箱内存在满足约束的运行时。constraint 是清单
// engines.node 的原始字符串,targetDir 是运行时的安装位置。
type Provisioner interface {
	Install(ctx context.Context, constraint, targetDir string) error
}

// NewSystemProvisioner 返回只做存在性校验的 Provisioner:运行时由
// 基础镜像预装,缺失时报 ErrRuntimeMissing,不负责下载。
func NewSystemProvisioner(r runner.Runner) Provisioner {
	return &systemProvisioner{r: r}
}

type systemProvisioner struct {
	r runner.Runner
}

func (p *systemProvisioner) Install(ctx context.Context, constraint, _ string) error {
	res, err := p.r.Run(ctx, runner.Command{Name: runtimeBinary, Args: []string{"--version"}})
	if err != nil || res.ExitCode != 0 {
		if constraint == "" {
			return ErrRuntimeMissing
		}
		return fmt.Errorf("%w (engines.node %q)", ErrRuntimeMissing, constraint)
	}
	return nil
}
