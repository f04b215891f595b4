package cachestore

import (
	"context"

	"github.com/modprep/modprep/internal/signature"
)

// Store 负责持久缓存的信任判断与目录搬运。磁盘布局遵循:
//
//	<cache-dir>/modprep/signature      # 上次保存时的工具链指纹
//	<cache-dir>/modprep/store/<name>/  # 逐个缓存目录的完整拷贝
//
// signature 是单行文本,加载后与当前指纹逐字节比较,不做解析。
type Store interface {
	// Status 报告缓存相对给定指纹的状态。没有指纹记录返回 StatusAbsent,
	// 记录与指纹不一致返回 StatusInvalid,一致返回 StatusValid。
	Status(sig signature.Signature) Status

	// Restore 将缓存目录复制回构建目录。store 里没有的名字静默跳过
	// (首次构建预热),构建目录里已存在的名字也跳过,不与缓存合并。
	Restore(ctx context.Context, buildDir string, names []string) error

	// Save 先清空既有 store 内容,再逐个持久化构建目录里的命名目录,
	// 最后写指纹记录。单个目录失败只记入报告,不中断其余目录。
	Save(ctx context.Context, buildDir string, names []string, sig signature.Signature) (*SaveReport, error)
}

// Status 描述缓存相对当前工具链指纹的可信度。
type Status string

const (
	StatusAbsent  Status = "absent"
	StatusInvalid Status = "invalid"
	StatusValid   Status = "valid"
)

// SaveReport 汇总一次保存的逐目录结果,调用方负责把失败项写进日志。
type SaveReport struct {
	Saved   []string
	Skipped []string
	Failed  map[string]error
}
