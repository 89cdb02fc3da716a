package vm

import (
	"encoding/json"
	"fmt"

	"vault/keys"
	"vault/utils"
)

// VaultRecord 金库持久记录；余额存放在账本里
type VaultRecord struct {
	Authority string `json:"vault_authority"`
	Locked    bool   `json:"locked"`
	Bump      uint8  `json:"bump"`
}

// VaultInfo 对外查询视图
type VaultInfo struct {
	Address   string
	Authority string
	Locked    bool
	Bump      uint8
	Balance   uint64
}

func loadVault(sv StateView, addr string) (*VaultRecord, bool, error) {
	raw, ok, err := sv.Get(keys.KeyVault(addr))
	if err != nil {
		return nil, false, fmt.Errorf("read vault %s: %w", addr, err)
	}
	if !ok {
		return nil, false, nil
	}
	var rec VaultRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("decode vault %s: %w", addr, err)
	}
	return &rec, true, nil
}

func vaultWrite(addr string, rec *VaultRecord) (WriteOp, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return WriteOp{}, err
	}
	return WriteOp{Key: keys.KeyVault(addr), Value: data, Category: "vault"}, nil
}

// checkSeeds 地址必须等于 authority 派生出的金库地址
func checkSeeds(programID, authority, addr string) (uint8, error) {
	derived, bump, err := utils.DeriveVaultAddress(programID, authority)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConstraintSeeds, err)
	}
	if derived != addr {
		return 0, ErrConstraintSeeds
	}
	return bump, nil
}

// requireVault 读取已存在的金库并校验派生地址
func requireVault(ctx *Context, addr string) (*VaultRecord, error) {
	rec, ok, err := loadVault(ctx.State, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVaultNotInitialized
	}
	if _, err := checkSeeds(ctx.ProgramID, rec.Authority, addr); err != nil {
		return nil, err
	}
	return rec, nil
}
