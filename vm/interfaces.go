package vm

import (
	"vault/db"
	"vault/types"
)

// StateView 状态视图：写入只进入视图，不直接落到底层 DB
type StateView interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, val []byte)
	Del(key string)
	// 快照点与回滚，用于单条指令失败时撤销
	Snapshot() int
	Revert(snap int) error
	// 导出累积的写集，给后续真正落库用
	Diff() []WriteOp
}

// TxHandler 指令处理器
type TxHandler interface {
	Kind() string
	// DryRun 在 ctx.State 上只读地计算写集，事件通过 ctx.Emit 暂存；
	// 写集由执行器统一应用
	DryRun(ctx *Context, tx *types.AnyTx) ([]WriteOp, *Receipt, error)
}

// SpecExecCache 按批次哈希缓存预执行结果
type SpecExecCache interface {
	Get(batchID string) (*SpecResult, bool)
	Put(res *SpecResult)
	// 淘汰低于某高度的结果，防止内存无限增长
	EvictBelow(height uint64)
	// 已提交状态在批次之外被修改（如 Fund）时整体作废
	Purge()
}

// DBManager 执行器依赖的存储能力
type DBManager interface {
	// ApplyAtomic 一组写在同一个事务里落盘，读者看不到中间状态
	ApplyAtomic(tasks []db.WriteTask) error
	Get(key string) ([]byte, error)
	Exists(key string) (bool, error)
	// 前缀扫描，返回所有以 prefix 开头的键值对
	Scan(prefix string) (map[string][]byte, error)
	// 从 start 起按 key 升序返回至多 limit 个键值对
	ScanKeysFrom(prefix, start string, limit int) ([]string, [][]byte, error)
}

// ReadThroughFn overlay 未命中时如何从底层存储读真实值
type ReadThroughFn func(key string) ([]byte, error)

// KindFn 从交易中提取种类，用于路由到 TxHandler
type KindFn func(tx *types.AnyTx) (string, error)
