package vm

import (
	"fmt"

	"vault/types"
)

// ToggleLockTxHandler authority 翻转金库的锁状态
type ToggleLockTxHandler struct{}

func (h *ToggleLockTxHandler) Kind() string {
	return types.KindToggleLock
}

func (h *ToggleLockTxHandler) DryRun(ctx *Context, tx *types.AnyTx) ([]WriteOp, *Receipt, error) {
	rec, err := requireVault(ctx, tx.Vault)
	if err != nil {
		return failedReceipt(tx, err)
	}
	if rec.Authority != ctx.Signer {
		return failedReceipt(tx, fmt.Errorf("toggle %s by %s: %w", tx.Vault, ctx.Signer, ErrUnauthorized))
	}

	rec.Locked = !rec.Locked
	w, err := vaultWrite(tx.Vault, rec)
	if err != nil {
		return failedReceipt(tx, err)
	}

	ctx.Emit(&types.ToggleLockEvent{
		Vault:          tx.Vault,
		VaultAuthority: rec.Authority,
		Locked:         rec.Locked,
	})
	return succeededReceipt(tx, []WriteOp{w})
}
