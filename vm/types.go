package vm

import (
	"errors"

	"vault/types"
)

var (
	ErrNilBatch        = errors.New("nil batch")
	ErrNilTx           = errors.New("nil transaction")
	ErrInvalidSnapshot = errors.New("invalid snapshot index")
	ErrHeightGap       = errors.New("batch height does not follow latest committed height")
	ErrParentMismatch  = errors.New("batch parent hash does not match committed chain")
)

const (
	StatusSucceed = "SUCCEED"
	StatusFailed  = "FAILED"
)

// WriteOp 要怎么改状态
type WriteOp struct {
	Key      string // 完整 key（含版本前缀）
	Value    []byte
	Del      bool
	Category string // vault / balance / event / index / receipt / meta
}

// Receipt 单条指令的执行结果
type Receipt struct {
	TxID        string `json:"tx_id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	ErrorCode   uint32 `json:"error_code,omitempty"`
	Code        string `json:"code,omitempty"`
	BatchHeight uint64 `json:"batch_height"`
	Timestamp   int64  `json:"timestamp"`
	WriteCount  int    `json:"write_count"`
	// EventSeqs 本交易产生的事件序号
	EventSeqs []uint64             `json:"event_seqs,omitempty"`
	Events    []*types.EventRecord `json:"-"`

	err error
}

// Err 失败回执对应的错误；成功时为 nil
func (r *Receipt) Err() error {
	if r == nil || r.Status != StatusFailed {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	if e := lookupError(r.ErrorCode, r.Code); e != nil {
		return e
	}
	return errors.New(r.Error)
}

func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == StatusSucceed
}

// SpecResult 批次预执行结果
type SpecResult struct {
	BatchID  string
	ParentID string
	Height   uint64
	Valid    bool
	Reason   string     // 无效时的原因
	Receipts []*Receipt // 按执行顺序
	Diff     []WriteOp  // 状态变更集合
}

// ReceiptFor 按交易 ID 查回执
func (r *SpecResult) ReceiptFor(txID string) (*Receipt, bool) {
	for _, rc := range r.Receipts {
		if rc.TxID == txID {
			return rc, true
		}
	}
	return nil, false
}
