// Package installer 把构建目录的探测结果映射成安装策略。Select 是纯
// 函数,每次构建只评估一次,决策之后不再回头修改。
package installer

import (
	"github.com/modprep/modprep/internal/pkgmanager"
	"github.com/modprep/modprep/internal/project"
	"github.com/modprep/modprep/internal/runner"
)

// Strategy 标识安装策略,值会进入日志与诊断输出。
type Strategy string

const (
	// StrategyYarnInstall 按 yarn.lock 精确安装,yarn 独占 node_modules。
	StrategyYarnInstall Strategy = "yarn-install"
	// StrategyRebuild 保留应用自带的 node_modules,重编译原生扩展后补装。
	StrategyRebuild Strategy = "rebuild"
	// StrategyFreshInstall 从零安装依赖树。
	StrategyFreshInstall Strategy = "fresh-install"
)

// Decision 是一次选择的完整结果:策略、负责执行的管理器、按序的
// 安装命令,以及是否需要先丢弃应用自带的 node_modules。
type Decision struct {
	Strategy        Strategy
	Manager         pkgmanager.Metadata
	Commands        []runner.Command
	DiscardPrebuilt bool
}

// Select 依据锁文件归属与自带 node_modules 选择策略。锁文件的优先级
// 严格高于自带目录:yarn.lock 在场时自带目录只能被丢弃。
func Select(bc *project.BuildContext) Decision {
	meta := managerFor(bc)

	if !meta.ToleratesPrebuilt {
		return Decision{
			Strategy:        StrategyYarnInstall,
			Manager:         meta,
			Commands:        []runner.Command{{Name: meta.Key, Args: meta.InstallArgs}},
			DiscardPrebuilt: bc.HasPrebuiltModules,
		}
	}

	if bc.HasPrebuiltModules {
		commands := make([]runner.Command, 0, 2)
		if len(meta.RebuildArgs) > 0 {
			commands = append(commands, runner.Command{Name: meta.Key, Args: meta.RebuildArgs})
		}
		commands = append(commands, runner.Command{Name: meta.Key, Args: meta.InstallArgs})
		return Decision{
			Strategy: StrategyRebuild,
			Manager:  meta,
			Commands: commands,
		}
	}

	return Decision{
		Strategy: StrategyFreshInstall,
		Manager:  meta,
		Commands: []runner.Command{{Name: meta.Key, Args: meta.InstallArgs}},
	}
}

// managerFor 返回锁文件对应的管理器,没有锁文件时退回默认管理器。
// 注册表缺失条目属于接线错误,直接 panic 暴露。
func managerFor(bc *project.BuildContext) pkgmanager.Metadata {
	key := bc.LockManager
	if key == "" {
		key = pkgmanager.DefaultManagerKey()
	}
	meta, ok := pkgmanager.Resolve(key)
	if !ok {
		panic("pkgmanager: " + key + " not registered")
	}
	return meta
}
