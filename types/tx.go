package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"vault/utils"
)

// 指令类型（与程序入口一一对应）
const (
	KindInitVault  = "init_vault"
	KindDeposit    = "deposit"
	KindWithdraw   = "withdraw"
	KindToggleLock = "toggle_lock"
)

var (
	ErrNilTx        = errors.New("nil transaction")
	ErrEmptyKind    = errors.New("empty tx kind")
	ErrTxIDMismatch = errors.New("tx id does not match content")
)

// Signer 能对字节签名并给出自身地址
type Signer interface {
	Address() string
	Sign(msg []byte) (string, error)
}

// AnyTx 一条已签名的金库指令
//
// Signer 同时是付款人/调用者；Vault 是指令操作的金库地址（由调用方给出，
// 执行时与派生地址比对）。
type AnyTx struct {
	TxID      string `json:"tx_id"`
	Kind      string `json:"kind"`
	Signer    string `json:"signer"`
	Vault     string `json:"vault"`
	Nonce     uint64 `json:"nonce"`
	Locked    bool   `json:"locked,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	Signature string `json:"signature"`
}

func NewInitVaultTx(signer, vault string, locked bool, nonce uint64) *AnyTx {
	return &AnyTx{Kind: KindInitVault, Signer: signer, Vault: vault, Locked: locked, Nonce: nonce}
}

func NewDepositTx(signer, vault string, amount, nonce uint64) *AnyTx {
	return &AnyTx{Kind: KindDeposit, Signer: signer, Vault: vault, Amount: amount, Nonce: nonce}
}

func NewWithdrawTx(signer, vault string, amount, nonce uint64) *AnyTx {
	return &AnyTx{Kind: KindWithdraw, Signer: signer, Vault: vault, Amount: amount, Nonce: nonce}
}

func NewToggleLockTx(signer, vault string, nonce uint64) *AnyTx {
	return &AnyTx{Kind: KindToggleLock, Signer: signer, Vault: vault, Nonce: nonce}
}

func (tx *AnyTx) GetTxId() string {
	if tx == nil {
		return ""
	}
	return tx.TxID
}

// SigningBytes 规范化编码：长度前缀字符串 + 大端整数，不含 TxID 和签名
func (tx *AnyTx) SigningBytes() []byte {
	var buf bytes.Buffer
	writeString := func(s string) {
		var l [4]byte
		binary.BigEndian.PutUint32(l[:], uint32(len(s)))
		buf.Write(l[:])
		buf.WriteString(s)
	}
	writeUint := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		buf.Write(b[:])
	}
	writeString(tx.Kind)
	writeString(tx.Signer)
	writeString(tx.Vault)
	writeUint(tx.Nonce)
	if tx.Locked {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	writeUint(tx.Amount)
	return buf.Bytes()
}

// ComputeID 内容摘要
func (tx *AnyTx) ComputeID() string {
	return utils.DigestHex(tx.SigningBytes())
}

// Sign 用 s 签名并填充 Signer / TxID / Signature
func (tx *AnyTx) Sign(s Signer) error {
	if tx == nil {
		return ErrNilTx
	}
	tx.Signer = s.Address()
	sig, err := s.Sign(tx.SigningBytes())
	if err != nil {
		return fmt.Errorf("sign %s tx: %w", tx.Kind, err)
	}
	tx.Signature = sig
	tx.TxID = tx.ComputeID()
	return nil
}

// VerifySignature 校验 TxID 与内容一致且签名来自 Signer
func (tx *AnyTx) VerifySignature() error {
	if tx == nil {
		return ErrNilTx
	}
	if tx.TxID != tx.ComputeID() {
		return ErrTxIDMismatch
	}
	return utils.VerifySignature(tx.Signer, tx.SigningBytes(), tx.Signature)
}

// DefaultKind 提取交易种类
func DefaultKind(tx *AnyTx) (string, error) {
	if tx == nil {
		return "", ErrNilTx
	}
	if tx.Kind == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyKind, tx.TxID)
	}
	return tx.Kind, nil
}
