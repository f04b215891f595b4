package pkgmanager

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const defaultManagerKey = "npm"

var globalRegistry = newRegistry()

type registry struct {
	mu       sync.RWMutex
	managers map[string]Metadata
}

func newRegistry() *registry {
	return &registry{managers: make(map[string]Metadata)}
}

// Register 将管理器元数据加入全局注册表，重复键会返回错误。
func Register(meta Metadata) error {
	return globalRegistry.register(meta)
}

// MustRegister 在注册失败时 panic，适合管理器 init() 中调用。
func MustRegister(meta Metadata) {
	if err := Register(meta); err != nil {
		panic(err)
	}
}

// Resolve 返回指定键的管理器元数据。
func Resolve(key string) (Metadata, bool) {
	return globalRegistry.resolve(key)
}

// ResolveByLockfile 根据构建目录里发现的锁文件名反查管理器。
func ResolveByLockfile(lockfile string) (Metadata, bool) {
	return globalRegistry.resolveByLockfile(lockfile)
}

// List 返回按键排序的管理器元数据列表。
func List() []Metadata {
	return globalRegistry.list()
}

// Keys 返回所有已注册管理器的键值，供调试或诊断使用。
func Keys() []string {
	items := List()
	result := make([]string, len(items))
	for i, meta := range items {
		result[i] = meta.Key
	}
	return result
}

func (r *registry) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *registry) register(meta Metadata) error {
	if meta.Key == "" {
		return fmt.Errorf("manager key is required")
	}
	key := r.normalizeKey(meta.Key)
	if key == "" {
		return fmt.Errorf("manager key is required")
	}
	meta.Key = key

	if meta.Lockfile == "" {
		return fmt.Errorf("manager %s requires a lockfile name", key)
	}
	if len(meta.InstallArgs) == 0 {
		return fmt.Errorf("manager %s requires install args", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.managers[key]; exists {
		return fmt.Errorf("manager %s already registered", key)
	}
	r.managers[key] = meta
	return nil
}

func (r *registry) resolve(key string) (Metadata, bool) {
	if key == "" {
		return Metadata{}, false
	}
	normalized := r.normalizeKey(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.managers[normalized]
	return meta, ok
}

func (r *registry) resolveByLockfile(lockfile string) (Metadata, bool) {
	if lockfile == "" {
		return Metadata{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, meta := range r.managers {
		if meta.Lockfile == lockfile {
			return meta, true
		}
	}
	return Metadata{}, false
}

func (r *registry) list() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.managers) == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.managers))
	for key := range r.managers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]Metadata, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.managers[key])
	}
	return result
}
