// Package runner 是唯一允许启动子进程的地方。安装流水线、工具链探测
// 和可选的依赖列举都通过 Runner 接口执行命令,测试里替换成 Fake 即可
// 在不碰真实包管理器的情况下验证完整流程。
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/modprep/modprep/internal/buildlog"
)

// Command 描述一次子进程调用。Env 中的条目追加在继承的进程环境之后。
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// Result 是命令执行结果。Output 仅包含本次命令产出的行,完整的
// 跨命令输出在共享 Buffer 里。
type Result struct {
	ExitCode int
	Output   []string
}

// Runner 执行命令并返回退出码。命令以非零码退出不算 error,只有
// 无法启动或被上下文打断才返回 error。
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// New 返回基于 os/exec 的 Runner。所有命令输出按行写入 buf,原始
// 字节同时镜像到 echo(一般是操作者可见的构建输出)。
func New(buf *buildlog.Buffer, echo io.Writer) Runner {
	return &execRunner{shared: buildlog.NewLineWriter(buf, echo)}
}

type execRunner struct {
	shared *buildlog.LineWriter
}

func (r *execRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	// 每条命令挂一个局部缓冲,这样 Result.Output 只含本命令的行,
	// 共享缓冲仍按到达顺序收到全部输出。
	local := buildlog.NewBuffer()
	sink := buildlog.NewLineWriter(local, r.shared)

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdout = sink
	c.Stderr = sink

	runErr := c.Run()
	sink.Flush()
	r.shared.Flush()

	if ctx.Err() != nil {
		return Result{ExitCode: -1, Output: local.Lines()}, fmt.Errorf("command interrupted: %w", ctx.Err())
	}
	if runErr == nil {
		return Result{ExitCode: 0, Output: local.Lines()}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return Result{ExitCode: exitErr.ExitCode(), Output: local.Lines()}, nil
	}
	return Result{ExitCode: -1, Output: local.Lines()}, fmt.Errorf("start command %s: %w", cmd.Name, runErr)
}
