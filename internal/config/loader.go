package config

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/modprep/modprep/internal/envdir"
)

// 环境目录下发的应用级开关键名,与部署平台约定保持一致。
const (
	EnvKeyCacheSave = "NODE_MODULES_CACHE"
	EnvKeyVerbose   = "NODE_VERBOSE"
	EnvKeyStack     = "STACK"
)

// DefaultStack 是环境目录未下发 STACK 时使用的平台标识。
const DefaultStack = "modprep-24"

// Load 合并默认值、环境目录开关与 MODPREP_* 进程环境变量,返回校验
// 通过的运行时参数。优先级从低到高:默认值 < 环境目录 < 进程环境。
func Load(envDir string) (*Settings, error) {
	env, err := envdir.Load(envDir)
	if err != nil {
		return nil, fmt.Errorf("读取环境目录失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	applyEnvDirToggles(v, env)
	if err := bindProcessEnv(v); err != nil {
		return nil, fmt.Errorf("绑定环境变量失败: %w", err)
	}

	var settings Settings
	if err := v.Unmarshal(&settings, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CacheSaveEnabled", true)
	v.SetDefault("VerboseListing", false)
	v.SetDefault("Stack", DefaultStack)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("InstallTimeout", "20m")
}

// applyEnvDirToggles 把环境目录里的开关写成次级默认值,这样进程环境
// 变量仍可覆盖,方便运维临时调试。
func applyEnvDirToggles(v *viper.Viper, env envdir.Env) {
	if _, ok := env.Lookup(EnvKeyCacheSave); ok {
		v.SetDefault("CacheSaveEnabled", env.Bool(EnvKeyCacheSave))
	}
	if _, ok := env.Lookup(EnvKeyVerbose); ok {
		v.SetDefault("VerboseListing", env.Bool(EnvKeyVerbose))
	}
	if stack, ok := env.Lookup(EnvKeyStack); ok && stack != "" {
		v.SetDefault("Stack", stack)
	}
}

func bindProcessEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"CacheSaveEnabled": "MODPREP_CACHE_SAVE",
		"VerboseListing":   "MODPREP_VERBOSE",
		"Stack":            "MODPREP_STACK",
		"LogLevel":         "MODPREP_LOG_LEVEL",
		"LogFilePath":      "MODPREP_LOG_FILE",
		"LogMaxSize":       "MODPREP_LOG_MAX_SIZE",
		"LogMaxBackups":    "MODPREP_LOG_MAX_BACKUPS",
		"LogCompress":      "MODPREP_LOG_COMPRESS",
		"InstallTimeout":   "MODPREP_INSTALL_TIMEOUT",
	}
	for key, envName := range bindings {
		if err := v.BindEnv(key, envName); err != nil {
			return err
		}
	}
	return nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
