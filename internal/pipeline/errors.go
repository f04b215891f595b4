package pipeline

import "fmt"

// StepError 记录流水线里第一条失败命令的现场:所处状态、完整命令行
// 和退出码。后续分类只读输出缓冲,不会重跑命令。
type StepError struct {
	State    State
	Command  string
	ExitCode int
}

func (e *StepError) Error() string {
	return fmt.Sprintf("state %s: command %q exited with code %d", e.State, e.Command, e.ExitCode)
}
