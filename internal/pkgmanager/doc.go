// Package pkgmanager 聚合各个 JS 包管理器的命令元数据,并提供统一的注册入口。
//
// 管理器作者需要:
//  1. 在 internal/pkgmanager/<manager-key>/ 目录下声明该工具的锁文件与命令参数;
//  2. 通过本包暴露的 Register 函数在 init() 中注册元数据;
//  3. 保证 Key 与可执行文件名一致,安装流水线直接用 Key 拼装子进程命令。
//
// 该包同时负责提供管理器发现与调试输出所需的查询能力。
package pkgmanager
