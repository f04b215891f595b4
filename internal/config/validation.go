package config

import (
	"errors"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法参数进入构建流程。
// 日志级别的解析交给 logging 包,这里只看取值范围。
func (s *Settings) Validate() error {
	if s == nil {
		return errors.New("配置为空")
	}

	if strings.TrimSpace(s.Stack) == "" {
		return newFieldError("Stack", "不能为空")
	}
	if s.InstallTimeout.DurationValue() <= 0 {
		return newFieldError("InstallTimeout", "必须大于 0")
	}
	if s.LogMaxSize <= 0 {
		return newFieldError("LogMaxSize", "必须大于 0")
	}
	if s.LogMaxBackups < 0 {
		return newFieldError("LogMaxBackups", "不能为负数")
	}

	return nil
}
