package pipeline

// State 标识流水线所处的阶段,值会进入日志字段。
type State string

const (
	StateStart    State = "start"
	StatePreHook  State = "pre-hook"
	StateInstall  State = "install"
	StatePostHook State = "post-hook"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// ValidTransitions 定义线性推进的状态机:
// start → pre-hook → install → post-hook → done,
// 任何非终态都允许直接进入 failed,两个终态没有出边。
var ValidTransitions = map[State][]State{
	StateStart:    {StatePreHook, StateFailed},
	StatePreHook:  {StateInstall, StateFailed},
	StateInstall:  {StatePostHook, StateFailed},
	StatePostHook: {StateDone, StateFailed},
	StateDone:     {},
	StateFailed:   {},
}

// CanTransition 判断一次状态迁移是否合法。
func CanTransition(from, to State) bool {
	for _, allowed := range ValidTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal 判断状态是否为终态,终态之后不再发生任何迁移。
func IsTerminal(s State) bool {
	return s == StateDone || s == StateFailed
}
