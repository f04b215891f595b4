// Package envdir 读取构建平台传入的环境目录:目录下的每个文件
// 对应一个变量,文件名是变量名,文件内容是变量值。
package envdir

import (
	"os"
	"path/filepath"
	"strings"
)

// Env 保存从环境目录解析出来的键值对。
type Env map[string]string

// Load 读取 dir 下的所有普通文件并返回解析结果。目录不存在时
// 返回空 Env,构建平台允许省略环境目录。
func Load(dir string) (Env, error) {
	env := Env{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return env, nil
		}
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		env[entry.Name()] = strings.TrimRight(string(data), "\r\n")
	}
	return env, nil
}

// Lookup 返回变量值以及该变量是否存在。
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// Bool 把变量解析成开关值。空值和不存在视为 false,
// "false"、"0"、"no"、"off" 之外的任何取值视为 true。
func (e Env) Bool(key string) bool {
	v, ok := e[key]
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "false", "0", "no", "off":
		return false
	}
	return true
}
