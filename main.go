package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/modprep/modprep/internal/config"
	"github.com/modprep/modprep/internal/fsutil"
	"github.com/modprep/modprep/internal/logging"
	"github.com/modprep/modprep/internal/orchestrator"
	"github.com/modprep/modprep/internal/version"
)

// cliOptions 汇总 CLI 参数解析后的结果,便于在测试中注入。
type cliOptions struct {
	buildDir    string
	cacheDir    string
	envDir      string
	detectOnly  bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行一次构建准备,并返回退出码,方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	if err := checkDirs(opts); err != nil {
		fmt.Fprintf(stdErr, "目录检查失败: %v\n", err)
		return 1
	}

	cfg, err := config.Load(opts.envDir)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(*cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	runOpts := orchestrator.Options{
		BuildDir: opts.buildDir,
		CacheDir: opts.cacheDir,
		EnvDir:   opts.envDir,
		Settings: cfg,
		Logger:   logger,
		Stdout:   stdOut,
	}

	if opts.detectOnly {
		return orchestrator.Detect(runOpts)
	}

	// CLI 启动遵循"环境目录 → 配置 → 日志 → 编排器"的顺序,所有
	// 运行期输出从这里开始经由 logrus,stderr 只留给启动失败。
	fields := logging.BaseFields("startup", opts.buildDir)
	fields["cache_dir"] = opts.cacheDir
	fields["env_dir"] = opts.envDir
	fields["stack"] = cfg.Stack
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("构建准备开始")

	return orchestrator.Run(context.Background(), runOpts)
}

// parseCLIFlags 解析 CLI 参数。除 --version 外必须给出三个目录:
// 构建目录、缓存目录、环境目录。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("modprep", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		detectOnly bool
		showVer    bool
	)

	fs.BoolVar(&detectOnly, "detect", false, "仅探测项目并输出将采用的安装策略")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	if showVer {
		return cliOptions{showVersion: true}, nil
	}

	rest := fs.Args()
	if len(rest) != 3 {
		return cliOptions{}, fmt.Errorf("用法: modprep [--detect] <build-dir> <cache-dir> <env-dir>")
	}

	return cliOptions{
		buildDir:   rest[0],
		cacheDir:   rest[1],
		envDir:     rest[2],
		detectOnly: detectOnly,
	}, nil
}

// checkDirs 校验构建目录可写,并按需创建缓存目录。环境目录允许不存在,
// 缺席等价于没有任何应用级配置。
func checkDirs(opts cliOptions) error {
	if !fsutil.DirExists(opts.buildDir) {
		return fmt.Errorf("构建目录不存在: %s", opts.buildDir)
	}
	if !fsutil.IsWritableDir(opts.buildDir) {
		return fmt.Errorf("构建目录不可写: %s", opts.buildDir)
	}
	if err := os.MkdirAll(opts.cacheDir, 0o755); err != nil {
		return fmt.Errorf("创建缓存目录失败: %w", err)
	}
	if !fsutil.IsWritableDir(opts.cacheDir) {
		return fmt.Errorf("缓存目录不可写: %s", opts.cacheDir)
	}
	return nil
}
