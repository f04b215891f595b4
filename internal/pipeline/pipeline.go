// Package pipeline 按固定顺序执行安装步骤:用户前置钩子、安装命令、
// 用户后置钩子。第一条失败命令立刻终结整个流水线,之后的状态不再执行。
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/modprep/modprep/internal/installer"
	"github.com/modprep/modprep/internal/logging"
	"github.com/modprep/modprep/internal/project"
	"github.com/modprep/modprep/internal/runner"
)

// Pipeline 串行驱动一次安装。实例只使用一次,状态单调推进到终态。
type Pipeline struct {
	bc       *project.BuildContext
	decision installer.Decision
	runner   runner.Runner
	logger   *logrus.Logger
	state    State
}

// New 构造待执行的流水线,初始状态为 start。
func New(bc *project.BuildContext, decision installer.Decision, r runner.Runner, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		bc:       bc,
		decision: decision,
		runner:   r,
		logger:   logger,
		state:    StateStart,
	}
}

// State 返回当前状态,终止后调用方据此区分 done/failed。
func (p *Pipeline) State() State {
	return p.state
}

// Run 依次执行全部步骤。命令以非零码退出时返回 *StepError,
// 无法启动命令或上下文被取消时返回底层错误;两种情况状态都落在 failed。
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.runPreHook(ctx); err != nil {
		return err
	}
	if err := p.runInstall(ctx); err != nil {
		return err
	}
	if err := p.runPostHook(ctx); err != nil {
		return err
	}
	return p.advance(StateDone)
}

func (p *Pipeline) runPreHook(ctx context.Context) error {
	if err := p.advance(StatePreHook); err != nil {
		return err
	}
	return p.runHook(ctx, project.PreHookScript)
}

func (p *Pipeline) runPostHook(ctx context.Context) error {
	if err := p.advance(StatePostHook); err != nil {
		return err
	}
	return p.runHook(ctx, project.PostHookScript)
}

// runHook 执行清单声明的生命周期钩子;未声明时该状态照常经过,只是
// 没有命令可跑。
func (p *Pipeline) runHook(ctx context.Context, script string) error {
	if !p.bc.Manifest.HasScript(script) {
		p.logger.WithFields(p.stepFields()).WithField("script", script).Debug("lifecycle hook not declared, nothing to run")
		return nil
	}

	cmd := runner.Command{
		Name: p.decision.Manager.Key,
		Args: p.decision.Manager.RunScriptArgs(script),
		Dir:  p.bc.BuildDir,
	}
	p.logger.WithFields(p.stepFields()).WithField("script", script).Info("running lifecycle hook")
	return p.exec(ctx, cmd)
}

func (p *Pipeline) runInstall(ctx context.Context) error {
	if err := p.advance(StateInstall); err != nil {
		return err
	}

	if p.decision.DiscardPrebuilt && p.bc.HasPrebuiltModules {
		p.logger.WithFields(p.stepFields()).Warn("discarding prebuilt node_modules, the lockfile owns the dependency tree")
		if err := os.RemoveAll(filepath.Join(p.bc.BuildDir, project.ModulesDir)); err != nil {
			p.toFailed()
			return fmt.Errorf("discard prebuilt modules: %w", err)
		}
		p.bc.MarkModulesDiscarded()
	}

	for _, cmd := range p.decision.Commands {
		cmd.Dir = p.bc.BuildDir
		p.logger.WithFields(p.stepFields()).WithField("command", renderCommand(cmd)).Info("running install command")
		if err := p.exec(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// exec 执行单条命令并把非零退出转换成 StepError。
func (p *Pipeline) exec(ctx context.Context, cmd runner.Command) error {
	res, err := p.runner.Run(ctx, cmd)
	if err != nil {
		p.toFailed()
		return err
	}
	if res.ExitCode != 0 {
		stepErr := &StepError{State: p.state, Command: renderCommand(cmd), ExitCode: res.ExitCode}
		p.toFailed()
		return stepErr
	}
	return nil
}

func (p *Pipeline) advance(to State) error {
	if !CanTransition(p.state, to) {
		return fmt.Errorf("invalid state transition %s to %s", p.state, to)
	}
	p.state = to
	return nil
}

func (p *Pipeline) toFailed() {
	if !IsTerminal(p.state) {
		p.state = StateFailed
	}
}

func (p *Pipeline) stepFields() logrus.Fields {
	return logging.StepFields(p.bc.BuildID, string(p.state), string(p.decision.Strategy))
}

func renderCommand(cmd runner.Command) string {
	return strings.Join(append([]string{cmd.Name}, cmd.Args...), " ")
}
