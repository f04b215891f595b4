// Package orchestrator 是唯一的组装点:串起目录探测、策略选择、工具链
// 指纹、缓存搬运、安装流水线与失败诊断。各组件之间不互相感知,顺序
// 与降级规则全部集中在这里。
package orchestrator

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/modprep/modprep/internal/buildlog"
	"github.com/modprep/modprep/internal/cachestore"
	"github.com/modprep/modprep/internal/config"
	"github.com/modprep/modprep/internal/diagnose"
	"github.com/modprep/modprep/internal/installer"
	"github.com/modprep/modprep/internal/logging"
	"github.com/modprep/modprep/internal/pipeline"
	"github.com/modprep/modprep/internal/project"
	"github.com/modprep/modprep/internal/runner"
	"github.com/modprep/modprep/internal/signature"
	"github.com/modprep/modprep/internal/toolchain"
)

// Options controls a single build. Runner, Store and Provisioner are
// injectable for tests; nil values select the real implementations.
type Options struct {
	BuildDir string
	CacheDir string
	EnvDir   string

	Settings *config.Settings
	Logger   *logrus.Logger

	Runner      runner.Runner
	Store       cachestore.Store
	Provisioner toolchain.Provisioner
	Buffer      *buildlog.Buffer
	Stdout      io.Writer
}

func (o *Options) validate() error {
	if o.BuildDir == "" {
		return errors.New("build dir is required")
	}
	if o.CacheDir == "" {
		return errors.New("cache dir is required")
	}
	if o.Settings == nil {
		return errors.New("settings are required")
	}
	if o.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Run 执行一次完整构建,返回进程退出码:0 成功,1 失败。
func Run(ctx context.Context, opts Options) int {
	start := time.Now()

	if err := opts.validate(); err != nil {
		if opts.Logger != nil {
			opts.Logger.WithError(err).Error("invalid build options")
		}
		return 1
	}
	logger := opts.Logger

	buf := opts.Buffer
	if buf == nil {
		buf = buildlog.NewBuffer()
	}
	echo := opts.Stdout
	if echo == nil {
		echo = os.Stdout
	}
	run := opts.Runner
	if run == nil {
		run = runner.New(buf, echo)
	}

	bc, err := project.NewContext(opts.BuildDir, opts.CacheDir, opts.EnvDir)
	if err != nil {
		logger.WithFields(logging.BaseFields("precheck", opts.BuildDir)).WithError(err).Error("build directory failed preconditions")
		return 1
	}
	logWarnings(logger, bc)

	decision := installer.Select(bc)
	selectFields := logging.StepFields(bc.BuildID, string(pipeline.StateStart), string(decision.Strategy))
	selectFields["manager"] = decision.Manager.Key
	selectFields["app"] = bc.Manifest.Name
	logger.WithFields(selectFields).Info("install strategy selected")

	// 所有子进程共享一个超时预算,包含工具链探测与安装本身。
	deadline, cancel := context.WithTimeout(ctx, opts.Settings.InstallTimeout.DurationValue())
	defer cancel()

	prov := opts.Provisioner
	if prov == nil {
		prov = toolchain.NewSystemProvisioner(run)
	}
	if err := prov.Install(deadline, bc.Manifest.Engines.Node, ""); err != nil {
		logger.WithFields(buildFields(bc, "toolchain")).WithError(err).Error("runtime provisioning failed")
		return 1
	}

	tc, err := toolchain.Resolve(deadline, run, decision.Manager.Key, opts.Settings.Stack)
	if err != nil {
		logger.WithFields(buildFields(bc, "toolchain")).WithError(err).Error("toolchain probe failed")
		return 1
	}
	sig := signature.Compute(tc)

	store := opts.Store
	if store == nil {
		store, err = cachestore.NewStore(opts.CacheDir)
		if err != nil {
			logger.WithFields(buildFields(bc, "cache_status")).WithError(err).Error("cache store unavailable")
			return 1
		}
	}

	names := bc.Manifest.CacheDirectoryNames()
	status := store.Status(sig)
	statusFields := buildFields(bc, "cache_status")
	statusFields["cache_status"] = string(status)
	statusFields["signature"] = string(sig)
	logger.WithFields(statusFields).Info("cache status evaluated")

	if status == cachestore.StatusValid {
		if err := store.Restore(deadline, bc.BuildDir, names); err != nil {
			// 恢复残缺由安装命令自行补齐,不值得葬送整次构建。
			logger.WithFields(buildFields(bc, "cache_restore")).WithError(err).Warn("cache restore incomplete")
		} else {
			logger.WithFields(buildFields(bc, "cache_restore")).WithField("directories", names).Info("cache restored")
		}
	}

	pipe := pipeline.New(bc, decision, run, logger)
	if err := pipe.Run(deadline); err != nil {
		reportFailure(logger, bc, buf, err)
		return 1
	}

	saveCache(ctx, logger, opts, store, bc, names, sig)
	verboseListing(deadline, logger, opts, run, bc, decision)

	logger.WithFields(logging.StepFields(bc.BuildID, string(pipe.State()), string(decision.Strategy))).
		WithField("elapsed", time.Since(start).Round(time.Millisecond).String()).
		Info("dependencies staged")
	return 0
}

// Detect 只报告探测结果与将要采用的策略,不执行任何子进程。
func Detect(opts Options) int {
	if err := opts.validate(); err != nil {
		if opts.Logger != nil {
			opts.Logger.WithError(err).Error("invalid build options")
		}
		return 1
	}

	bc, err := project.NewContext(opts.BuildDir, opts.CacheDir, opts.EnvDir)
	if err != nil {
		opts.Logger.WithFields(logging.BaseFields("detect", opts.BuildDir)).WithError(err).Error("not an installable project")
		return 1
	}

	decision := installer.Select(bc)
	fields := buildFields(bc, "detect")
	fields["app"] = bc.Manifest.Name
	fields["manager"] = decision.Manager.Key
	fields["strategy"] = string(decision.Strategy)
	fields["prebuilt_modules"] = bc.HasPrebuiltModules
	fields["prebuild_hook"] = bc.Manifest.HasScript(project.PreHookScript)
	fields["postbuild_hook"] = bc.Manifest.HasScript(project.PostHookScript)
	opts.Logger.WithFields(fields).Info("project detected")
	return 0
}

// buildFields 是编排器所有日志的公共字段:动作、构建目录、构建 ID。
func buildFields(bc *project.BuildContext, action string) logrus.Fields {
	fields := logging.BaseFields(action, bc.BuildDir)
	fields["build_id"] = bc.BuildID
	return fields
}

func logWarnings(logger *logrus.Logger, bc *project.BuildContext) {
	for _, warning := range bc.Warnings {
		logger.WithFields(buildFields(bc, "precheck")).Warn(warning)
	}
}

// reportFailure 先给出已知失败形态的解释,再落流水线错误本身。
// 分类永远不改变退出码,解释不了时只报告原始错误。
func reportFailure(logger *logrus.Logger, bc *project.BuildContext, buf *buildlog.Buffer, err error) {
	for _, diag := range diagnose.Classify(buf) {
		fields := buildFields(bc, "diagnose")
		fields["pattern"] = diag.Name
		fields["advice"] = diag.Advice
		if diag.Severity == diagnose.SeverityFailure {
			logger.WithFields(fields).Error(diag.Title)
		} else {
			logger.WithFields(fields).Warn(diag.Title)
		}
	}

	fields := buildFields(bc, "install")
	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		fields["state"] = string(stepErr.State)
		fields["command"] = stepErr.Command
		fields["exit_code"] = stepErr.ExitCode
		logger.WithFields(fields).Error("install pipeline failed")
		return
	}
	logger.WithFields(fields).WithError(err).Error("install pipeline failed")
}

func saveCache(ctx context.Context, logger *logrus.Logger, opts Options, store cachestore.Store, bc *project.BuildContext, names []string, sig signature.Signature) {
	if !opts.Settings.CacheSaveEnabled {
		logger.WithFields(buildFields(bc, "cache_save")).Info("cache save disabled, skipping")
		return
	}

	report, err := store.Save(ctx, bc.BuildDir, names, sig)
	if err != nil {
		// 安装已经成功,缓存写不进去只影响下次构建的速度。
		logger.WithFields(buildFields(bc, "cache_save")).WithError(err).Warn("cache save failed")
		return
	}
	for name, saveErr := range report.Failed {
		logger.WithFields(buildFields(bc, "cache_save")).WithField("directory", name).WithError(saveErr).Warn("cache directory not saved")
	}

	fields := buildFields(bc, "cache_save")
	fields["saved"] = report.Saved
	fields["skipped"] = report.Skipped
	logger.WithFields(fields).Info("cache saved")
}

// verboseListing 打印安装后的顶层依赖树,纯咨询性质,失败直接忽略。
func verboseListing(ctx context.Context, logger *logrus.Logger, opts Options, run runner.Runner, bc *project.BuildContext, decision installer.Decision) {
	if !opts.Settings.VerboseListing || len(decision.Manager.ListArgs) == 0 {
		return
	}

	cmd := runner.Command{Name: decision.Manager.Key, Args: decision.Manager.ListArgs, Dir: bc.BuildDir}
	if _, err := run.Run(ctx, cmd); err != nil {
		logger.WithFields(buildFields(bc, "listing")).WithError(err).Debug("dependency listing unavailable")
	}
}
