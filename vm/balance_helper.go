package vm

import (
	"fmt"

	"vault/keys"
)

// GetBalance 读取地址的原生币余额，不存在视为 0
func GetBalance(sv StateView, addr string) (uint64, error) {
	raw, ok, err := sv.Get(keys.KeyBalance(addr))
	if err != nil {
		return 0, fmt.Errorf("read balance %s: %w", addr, err)
	}
	if !ok {
		return 0, nil
	}
	v, err := ParseBalance(string(raw))
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", addr, err)
	}
	return v, nil
}

func balanceWrite(addr string, v uint64) WriteOp {
	return WriteOp{Key: keys.KeyBalance(addr), Value: formatBalance(v), Category: "balance"}
}

// creditWrite 入账后的写操作；超过 u64 返回 ErrOverflow
func creditWrite(sv StateView, addr string, amount uint64) (WriteOp, error) {
	bal, err := GetBalance(sv, addr)
	if err != nil {
		return WriteOp{}, err
	}
	next, err := SafeAdd(bal, amount)
	if err != nil {
		return WriteOp{}, err
	}
	return balanceWrite(addr, next), nil
}

// transferWrites from -> to；余额不足返回 ErrInsufficientBalance。
// from 与 to 必须不同
func transferWrites(sv StateView, from, to string, amount uint64) ([]WriteOp, error) {
	if from == to {
		return nil, fmt.Errorf("transfer to self: %s", from)
	}
	fromBal, err := GetBalance(sv, from)
	if err != nil {
		return nil, err
	}
	if fromBal < amount {
		return nil, ErrInsufficientBalance
	}
	debited, err := SafeSub(fromBal, amount)
	if err != nil {
		return nil, err
	}
	credit, err := creditWrite(sv, to, amount)
	if err != nil {
		return nil, err
	}
	return []WriteOp{balanceWrite(from, debited), credit}, nil
}
