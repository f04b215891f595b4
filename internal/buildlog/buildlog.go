// Package buildlog 收集安装子进程的逐行输出。Buffer 只追加、保持顺序，
// 失败分类器在流水线结束后整体读取，不做任何原地修改。
package buildlog

import (
	"strings"
	"sync"
)

// Buffer 按行累积子进程输出。os/exec 会用独立 goroutine 拷贝 stdout/stderr，
// 因此追加路径需要加锁；读取方在流水线结束后单线程访问。
type Buffer struct {
	mu    sync.Mutex
	lines []string
}

// NewBuffer 返回空的日志缓冲。
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append 追加一行输出，保持到达顺序。
func (b *Buffer) Append(line string) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.mu.Unlock()
}

// Lines 返回全部行的副本，调用方可安全遍历。
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len 返回当前累积的行数。
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Tail 返回最后 n 行，不足 n 行时返回全部。
func (b *Buffer) Tail(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || len(b.lines) == 0 {
		return nil
	}
	start := len(b.lines) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, len(b.lines)-start)
	copy(out, b.lines[start:])
	return out
}

// Contains 判断任意一行是否包含给定子串，供分类规则使用。
func (b *Buffer) Contains(substr string) bool {
	if substr == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, line := range b.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// String 将全部行拼接为单个文本块，便于错误报告附带原始输出。
func (b *Buffer) String() string {
	return strings.Join(b.Lines(), "\n")
}
