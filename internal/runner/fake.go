package runner

import (
	"context"
	"sync"

	"github.com/modprep/modprep/internal/buildlog"
)

// Response 是 Fake 对一条脚本键的预设应答。
type Response struct {
	ExitCode int
	Output   []string
	Err      error
}

// Call 是 Fake 流水账里的一条调用记录。
type Call struct {
	Name string
	Args []string
	Dir  string
}

// Fake 按脚本键回放预设应答并记录全部调用,供测试断言执行顺序与
// 中断行为。脚本键是 "name" 或 "name 第一个参数",例如 "npm install"。
type Fake struct {
	mu        sync.Mutex
	buf       *buildlog.Buffer
	responses map[string]Response
	calls     []Call
}

// NewFake 构造空 Fake。buf 可以为 nil,此时输出行不落缓冲。
func NewFake(buf *buildlog.Buffer) *Fake {
	return &Fake{buf: buf, responses: make(map[string]Response)}
}

// Script 为脚本键登记应答,未登记的命令按成功、无输出处理。
func (f *Fake) Script(key string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = resp
}

// Run 实现 Runner。
func (f *Fake) Run(_ context.Context, cmd Command) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: cmd.Name, Args: append([]string(nil), cmd.Args...), Dir: cmd.Dir})
	resp, ok := f.responses[scriptKey(cmd)]
	f.mu.Unlock()

	if !ok {
		return Result{ExitCode: 0}, nil
	}
	if f.buf != nil {
		for _, line := range resp.Output {
			f.buf.Append(line)
		}
	}
	if resp.Err != nil {
		return Result{ExitCode: -1}, resp.Err
	}
	return Result{ExitCode: resp.ExitCode, Output: append([]string(nil), resp.Output...)}, nil
}

// Calls 返回调用记录副本。
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Invoked 判断某个脚本键是否被调用过。
func (f *Fake) Invoked(key string) bool {
	for _, call := range f.Calls() {
		if scriptKey(Command{Name: call.Name, Args: call.Args}) == key {
			return true
		}
	}
	return false
}

func scriptKey(cmd Command) string {
	if len(cmd.Args) == 0 {
		return cmd.Name
	}
	return cmd.Name + " " + cmd.Args[0]
}
