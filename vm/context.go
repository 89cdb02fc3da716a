package vm

import (
	"vault/types"
)

// Context 处理器拿到的已认证执行上下文：
// Signer 的签名已由执行器校验，处理器只需要做业务检查
type Context struct {
	Signer    string
	ProgramID string
	TxID      string
	Height    uint64
	State     StateView

	events []types.Event
}

// Emit 暂存一条事件；指令失败时执行器直接丢弃
func (c *Context) Emit(ev types.Event) {
	c.events = append(c.events, ev)
}

// Events 已暂存的事件
func (c *Context) Events() []types.Event {
	return c.events
}
