// keys/keys.go
// 统一的 Key 定义包，供 VM 和 DB 模块共同使用
package keys

import (
	"fmt"
	"strings"
)

// ===================== 版本控制 =====================
// 全局 Key 版本前缀（例如 "v1" → 产出 "v1_<key>"）。
const KeyVersion = "v1"

// withVer 把版本号拼到最前面（保持下划线风格：v1_<...>）
func withVer(s string) string {
	if KeyVersion == "" {
		return s
	}
	return KeyVersion + "_" + s
}

// StripVersion 把带版本的键去掉版本前缀
func StripVersion(prefixed string) string {
	if KeyVersion == "" {
		return prefixed
	}
	return strings.TrimPrefix(prefixed, KeyVersion+"_")
}

// padUint 定长数字，保证字典序 == 数值序
func padUint(n uint64) string {
	return fmt.Sprintf("%020d", n)
}

// ===================== 账户 / 金库 =====================

// KeyVault 金库记录（authority、locked、bump）
// 例：v1_vault_<vaultAddr>
func KeyVault(vaultAddr string) string {
	return withVer("vault_" + vaultAddr)
}

// KeyVaultPrefix 所有金库记录的前缀
func KeyVaultPrefix() string {
	return withVer("vault_")
}

// KeyBalance 原生币余额，用户地址和金库地址共用
// 例：v1_balance_<addr>
func KeyBalance(addr string) string {
	return withVer("balance_" + addr)
}

// KeyBalancePrefix 余额前缀
func KeyBalancePrefix() string {
	return withVer("balance_")
}

// ===================== 事件日志 =====================

// KeyEventSeq 下一个事件序号
// 例：v1_event_seq
func KeyEventSeq() string {
	return withVer("event_seq")
}

// KeyEvent 事件记录
// 例：v1_event_<seq:020d>
func KeyEvent(seq uint64) string {
	return withVer("event_" + padUint(seq))
}

// KeyEventPrefix 事件记录前缀（不含 event_seq）
func KeyEventPrefix() string {
	return withVer("event_0")
}

// KeyVaultEvents 某个金库的事件序号位图
// 例：v1_vault_events_<vaultAddr>
func KeyVaultEvents(vaultAddr string) string {
	return withVer("vault_events_" + vaultAddr)
}

// ===================== VM 执行相关 =====================

// KeyVMAppliedTx 交易执行状态（SUCCEED / FAILED）
// 例：v1_vm_applied_tx_<txID>
func KeyVMAppliedTx(txID string) string {
	return withVer("vm_applied_tx_" + txID)
}

// KeyVMTxError 交易失败原因
// 例：v1_vm_tx_err_<txID>
func KeyVMTxError(txID string) string {
	return withVer("vm_tx_err_" + txID)
}

// KeyVMTxHeight 交易所在批次高度
// 例：v1_vm_tx_height_<txID>
func KeyVMTxHeight(txID string) string {
	return withVer("vm_tx_height_" + txID)
}

// KeyVMReceipt 完整回执（JSON）
// 例：v1_vm_receipt_<txID>
func KeyVMReceipt(txID string) string {
	return withVer("vm_receipt_" + txID)
}

// KeyVMCommitHeight 批次提交标记
// 例：v1_vm_commit_h_<height:020d>
func KeyVMCommitHeight(height uint64) string {
	return withVer("vm_commit_h_" + padUint(height))
}

// KeyLatestHeight 最新已提交高度
// 例：v1_latest_height
func KeyLatestHeight() string {
	return withVer("latest_height")
}
