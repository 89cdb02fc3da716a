package vm

import (
	"fmt"

	"vault/types"
)

// DepositTxHandler 任意签名者向未锁定的金库转入原生币
type DepositTxHandler struct{}

func (h *DepositTxHandler) Kind() string {
	return types.KindDeposit
}

func (h *DepositTxHandler) DryRun(ctx *Context, tx *types.AnyTx) ([]WriteOp, *Receipt, error) {
	rec, err := requireVault(ctx, tx.Vault)
	if err != nil {
		return failedReceipt(tx, err)
	}
	if rec.Locked {
		return failedReceipt(tx, fmt.Errorf("deposit into %s: %w", tx.Vault, ErrVaultLocked))
	}

	ws, err := transferWrites(ctx.State, ctx.Signer, tx.Vault, tx.Amount)
	if err != nil {
		return failedReceipt(tx, fmt.Errorf("deposit %d from %s: %w", tx.Amount, ctx.Signer, err))
	}

	ctx.Emit(&types.DepositEvent{
		Amount: tx.Amount,
		User:   ctx.Signer,
		Vault:  tx.Vault,
	})
	return succeededReceipt(tx, ws)
}
