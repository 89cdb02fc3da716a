package vm

import (
	"fmt"
	"sort"

	"vault/keys"
	"vault/types"
	"vault/utils"
)

// committedView 直接读已提交状态
func (x *Executor) committedView() StateView {
	return NewStateView(x.ReadFn)
}

// GetVault 金库记录及其余额
func (x *Executor) GetVault(addr string) (*VaultInfo, error) {
	sv := x.committedView()
	rec, ok, err := loadVault(sv, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVaultNotInitialized
	}
	bal, err := GetBalance(sv, addr)
	if err != nil {
		return nil, err
	}
	return &VaultInfo{
		Address:   addr,
		Authority: rec.Authority,
		Locked:    rec.Locked,
		Bump:      rec.Bump,
		Balance:   bal,
	}, nil
}

// VaultAddressOf authority 对应的金库地址
func (x *Executor) VaultAddressOf(authority string) (string, error) {
	addr, _, err := utils.DeriveVaultAddress(x.ProgramID, authority)
	return addr, err
}

// ListVaults 所有已创建的金库
func (x *Executor) ListVaults() ([]*VaultInfo, error) {
	kvs, err := x.DB.Scan(keys.KeyVaultPrefix())
	if err != nil {
		return nil, err
	}
	prefix := keys.KeyVaultPrefix()
	out := make([]*VaultInfo, 0, len(kvs))
	for k := range kvs {
		if keys.CategoryName(k) != "vault" {
			continue
		}
		info, err := x.GetVault(k[len(prefix):])
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	sortVaults(out)
	return out, nil
}

func sortVaults(vs []*VaultInfo) {
	sort.Slice(vs, func(i, j int) bool { return vs[i].Address < vs[j].Address })
}

// GetBalance 已提交的余额
func (x *Executor) GetBalance(addr string) (uint64, error) {
	return GetBalance(x.committedView(), addr)
}

func (x *Executor) eventAt(seq uint64) (*types.EventRecord, error) {
	raw, err := x.DB.Get(keys.KeyEvent(seq))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("event %d not found", seq)
	}
	return types.UnmarshalEventRecord(raw)
}

// Events 某个金库的全部事件，按序号升序
func (x *Executor) Events(vault string) ([]*types.EventRecord, error) {
	bm, err := loadEventIndex(x.committedView(), vault)
	if err != nil {
		return nil, err
	}
	out := make([]*types.EventRecord, 0, bm.GetCardinality())
	for _, seq := range bm.ToArray() {
		rec, err := x.eventAt(uint64(seq))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// EventsFrom 从 seq 开始按序读取至多 limit 条事件（limit<=0 表示全部）
func (x *Executor) EventsFrom(seq uint64, limit int) ([]*types.EventRecord, error) {
	if seq == 0 {
		seq = 1
	}
	_, vals, err := x.DB.ScanKeysFrom(keys.KeyEventPrefix(), keys.KeyEvent(seq), limit)
	if err != nil {
		return nil, err
	}
	out := make([]*types.EventRecord, 0, len(vals))
	for _, raw := range vals {
		rec, err := types.UnmarshalEventRecord(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
