package vm

import (
	"errors"
	"fmt"
)

// VaultError 带数字编码的程序错误，errors.Is 按 Code+Name 比较
type VaultError struct {
	Code uint32
	Name string
	Msg  string
}

func (e *VaultError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("Error: %s. %s", e.Name, e.Msg)
	}
	return fmt.Sprintf("Error Code: %s. Error Number: %d. Error Message: %s.", e.Name, e.Code, e.Msg)
}

func (e *VaultError) Is(target error) bool {
	t, ok := target.(*VaultError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Name == t.Name
}

// 程序自定义错误（6000 起）
var (
	ErrVaultLocked         = &VaultError{Code: 6000, Name: "VaultLocked", Msg: "Vault is locked"}
	ErrOverflow            = &VaultError{Code: 6001, Name: "Overflow", Msg: "Overflow"}
	ErrInsufficientBalance = &VaultError{Code: 6002, Name: "InsufficientBalance", Msg: "Insufficient balance"}
	ErrUnauthorized        = &VaultError{Code: 6003, Name: "Unauthorized", Msg: "Signer is not the vault authority"}
)

// 宿主运行时错误
var (
	ErrUnknownInstruction          = &VaultError{Code: 101, Name: "InstructionFallbackNotFound", Msg: "Fallback functions are not supported"}
	ErrMissingSigner               = &VaultError{Code: 2002, Name: "ConstraintSigner", Msg: "A signer constraint was violated"}
	ErrConstraintSeeds             = &VaultError{Code: 2006, Name: "ConstraintSeeds", Msg: "A seeds constraint was violated"}
	ErrVaultNotInitialized         = &VaultError{Code: 3012, Name: "AccountNotInitialized", Msg: "The program expected this account to be already initialized"}
	ErrVaultAlreadyExists          = &VaultError{Name: "AccountAlreadyInUse", Msg: "Vault account already in use"}
	ErrSignatureVerificationFailed = &VaultError{Name: "SignatureVerificationFailed", Msg: "Transaction signature verification failure"}
)

var knownErrors = []*VaultError{
	ErrVaultLocked, ErrOverflow, ErrInsufficientBalance, ErrUnauthorized,
	ErrUnknownInstruction, ErrMissingSigner, ErrConstraintSeeds,
	ErrVaultNotInitialized, ErrVaultAlreadyExists, ErrSignatureVerificationFailed,
}

// ErrorCode 提取错误链上的 VaultError；不是程序错误时 ok=false
func ErrorCode(err error) (code uint32, name string, ok bool) {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Code, ve.Name, true
	}
	return 0, "", false
}

// lookupError 按持久化的编码还原错误值
func lookupError(code uint32, name string) *VaultError {
	for _, e := range knownErrors {
		if e.Code == code && e.Name == name {
			return e
		}
	}
	return nil
}
