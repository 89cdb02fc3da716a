package vm

import (
	"vault/config"
)

// RegisterDefaultHandlers 注册金库程序的四条指令
func RegisterDefaultHandlers(reg *HandlerRegistry, cfg *config.VaultConfig) error {
	if cfg == nil {
		cfg = &config.DefaultConfig().Vault
	}
	handlers := []TxHandler{
		&InitVaultTxHandler{},
		&DepositTxHandler{},
		&WithdrawTxHandler{LegacyAuthError: cfg.LegacyAuthError},
		&ToggleLockTxHandler{},
	}
	for _, h := range handlers {
		if err := reg.Register(h); err != nil {
			return err
		}
	}
	return nil
}
