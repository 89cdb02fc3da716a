package vm

import (
	"fmt"

	"vault/types"
)

// InitVaultTxHandler 为签名者创建金库，余额为 0
type InitVaultTxHandler struct{}

func (h *InitVaultTxHandler) Kind() string {
	return types.KindInitVault
}

func (h *InitVaultTxHandler) DryRun(ctx *Context, tx *types.AnyTx) ([]WriteOp, *Receipt, error) {
	// 1. 金库地址必须由签名者派生
	bump, err := checkSeeds(ctx.ProgramID, ctx.Signer, tx.Vault)
	if err != nil {
		return failedReceipt(tx, err)
	}

	// 2. 每个 authority 只能有一个金库
	_, exists, err := loadVault(ctx.State, tx.Vault)
	if err != nil {
		return failedReceipt(tx, err)
	}
	if exists {
		return failedReceipt(tx, fmt.Errorf("init vault %s: %w", tx.Vault, ErrVaultAlreadyExists))
	}

	rec := &VaultRecord{Authority: ctx.Signer, Locked: tx.Locked, Bump: bump}
	w, err := vaultWrite(tx.Vault, rec)
	if err != nil {
		return failedReceipt(tx, err)
	}

	ctx.Emit(&types.InitializeVaultEvent{
		Vault:          tx.Vault,
		VaultAuthority: ctx.Signer,
		Locked:         rec.Locked,
	})
	return succeededReceipt(tx, []WriteOp{w})
}
