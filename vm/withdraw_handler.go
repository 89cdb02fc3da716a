package vm

import (
	"fmt"

	"vault/types"
)

// WithdrawTxHandler authority 从未锁定的金库取回原生币
type WithdrawTxHandler struct {
	// LegacyAuthError 非 authority 调用时返回 VaultLocked 而不是 Unauthorized
	LegacyAuthError bool
}

func (h *WithdrawTxHandler) Kind() string {
	return types.KindWithdraw
}

func (h *WithdrawTxHandler) DryRun(ctx *Context, tx *types.AnyTx) ([]WriteOp, *Receipt, error) {
	rec, err := requireVault(ctx, tx.Vault)
	if err != nil {
		return failedReceipt(tx, err)
	}

	// authority 检查先于锁状态检查
	if rec.Authority != ctx.Signer {
		authErr := ErrUnauthorized
		if h.LegacyAuthError {
			authErr = ErrVaultLocked
		}
		return failedReceipt(tx, fmt.Errorf("withdraw from %s by %s: %w", tx.Vault, ctx.Signer, authErr))
	}
	if rec.Locked {
		return failedReceipt(tx, fmt.Errorf("withdraw from %s: %w", tx.Vault, ErrVaultLocked))
	}

	ws, err := transferWrites(ctx.State, tx.Vault, ctx.Signer, tx.Amount)
	if err != nil {
		return failedReceipt(tx, fmt.Errorf("withdraw %d from %s: %w", tx.Amount, tx.Vault, err))
	}

	ctx.Emit(&types.WithdrawEvent{
		Amount:         tx.Amount,
		VaultAuthority: ctx.Signer,
		Vault:          tx.Vault,
	})
	return succeededReceipt(tx, ws)
}
