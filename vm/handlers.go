package vm

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"vault/types"
)

// HandlerRegistry Handler 注册表
type HandlerRegistry struct {
	mu sync.RWMutex
	m  map[string]TxHandler
}

// NewHandlerRegistry 创建新的注册表
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{m: make(map[string]TxHandler)}
}

// Register 注册 Handler
func (r *HandlerRegistry) Register(h TxHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h == nil {
		return errors.New("nil handler")
	}
	kind := h.Kind()
	if kind == "" {
		return errors.New("empty handler kind")
	}
	if _, ok := r.m[kind]; ok {
		return fmt.Errorf("duplicate handler kind: %s", kind)
	}
	r.m[kind] = h
	return nil
}

// Get 获取 Handler
func (r *HandlerRegistry) Get(kind string) (TxHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.m[kind]
	return h, ok
}

// List 列出所有已注册的类型（排序）
func (r *HandlerRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.m))
	for k := range r.m {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// DefaultKindFn 默认的 KindFn 实现
func DefaultKindFn(tx *types.AnyTx) (string, error) {
	if tx == nil {
		return "", ErrNilTx
	}
	return types.DefaultKind(tx)
}

func failedReceipt(tx *types.AnyTx, err error) ([]WriteOp, *Receipt, error) {
	return nil, &Receipt{
		TxID:   tx.GetTxId(),
		Kind:   tx.Kind,
		Status: StatusFailed,
		Error:  err.Error(),
	}, err
}

func succeededReceipt(tx *types.AnyTx, ws []WriteOp) ([]WriteOp, *Receipt, error) {
	return ws, &Receipt{
		TxID:       tx.GetTxId(),
		Kind:       tx.Kind,
		Status:     StatusSucceed,
		WriteCount: len(ws),
	}, nil
}
