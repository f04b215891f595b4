package project

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ManifestFileName 是 Node 项目清单的固定文件名。
const ManifestFileName = "package.json"

// 清单未声明 cacheDirectories 时缓存的默认目录对。
var defaultCacheDirectories = []string{ModulesDir, "bower_components"}

// Engines 记录清单里声明的工具链版本约束,全部是语义化版本范围字符串。
type Engines struct {
	Node string `mapstructure:"node"`
	NPM  string `mapstructure:"npm"`
	Yarn string `mapstructure:"yarn"`
}

// Manifest 是 package.json 中与依赖安装相关的字段投影,其余字段忽略。
type Manifest struct {
	Name             string            `mapstructure:"name"`
	Engines          Engines           `mapstructure:"engines"`
	CacheDirectories []string          `mapstructure:"cacheDirectories"`
	Scripts          map[string]string `mapstructure:"scripts"`
}

// ParseManifest 读取并解析 path 指向的 package.json。文件缺失与内容
// 非法分别映射到 ErrManifestMissing / ErrManifestInvalid。
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrManifestMissing
		}
		return nil, fmt.Errorf("读取 %s 失败: %w", ManifestFileName, err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}

	var manifest Manifest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &manifest,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}

	return &manifest, nil
}

// HasScript 判断清单 scripts 里是否声明了指定条目。
func (m *Manifest) HasScript(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Scripts[name]
	return ok
}

// CacheDirectoryNames 返回需要进缓存的目录名列表。清单声明了
// cacheDirectories 时使用声明值,否则退回默认目录对。
func (m *Manifest) CacheDirectoryNames() []string {
	if m == nil || len(m.CacheDirectories) == 0 {
		return append([]string(nil), defaultCacheDirectories...)
	}

	names := make([]string, 0, len(m.CacheDirectories))
	for _, name := range m.CacheDirectories {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		names = append(names, trimmed)
	}
	if len(names) == 0 {
		return append([]string(nil), defaultCacheDirectories...)
	}
	return names
}
