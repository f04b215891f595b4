package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 构建目录等基础字段，便于不同入口复用。
func BaseFields(action, buildDir string) logrus.Fields {
	return logrus.Fields{
		"action":    action,
		"build_dir": buildDir,
	}
}

// StepFields 提供构建 ID/流水线状态/安装策略字段，供各执行步骤日志复用。
func StepFields(buildID, state, strategy string) logrus.Fields {
	return logrus.Fields{
		"build_id": buildID,
		"state":    state,
		"strategy": strategy,
	}
}
