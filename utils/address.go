package utils

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// AddressLen 身份/地址的原始字节长度
const AddressLen = 32

const (
	vaultSeed  = "vault"
	pdaMarker  = "ProgramDerivedAddress"
	maxBump    = 255
	maxSeedLen = 32
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrNoViableBump   = errors.New("unable to find a viable program address bump")
)

// EncodeAddress 32 字节 -> base58
func EncodeAddress(raw []byte) string {
	return base58.Encode(raw)
}

// DecodeAddress base58 -> 32 字节
func DecodeAddress(addr string) ([]byte, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw := base58.Decode(addr)
	if len(raw) != AddressLen {
		return nil, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, addr, len(raw))
	}
	return raw, nil
}

// ValidAddress 地址格式是否合法
func ValidAddress(addr string) bool {
	_, err := DecodeAddress(addr)
	return err == nil
}

// CreateProgramAddress 用给定种子和程序 ID 计算程序派生地址；
// 结果落在曲线上（可能有私钥）时返回错误
func CreateProgramAddress(seeds [][]byte, programID []byte) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range seeds {
		if len(s) > maxSeedLen {
			return nil, fmt.Errorf("seed too long: %d bytes", len(s))
		}
		buf.Write(s)
	}
	buf.Write(programID)
	buf.WriteString(pdaMarker)
	h := Sha256Hash(buf.Bytes())
	if IsOnCurve(h) {
		return nil, ErrNoViableBump
	}
	return h, nil
}

// FindProgramAddress 从 bump=255 向下找第一个不在曲线上的派生地址
func FindProgramAddress(seeds [][]byte, programID []byte) ([]byte, uint8, error) {
	for bump := maxBump; bump >= 0; bump-- {
		withBump := append(append([][]byte{}, seeds...), []byte{byte(bump)})
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrNoViableBump) {
			return nil, 0, err
		}
	}
	return nil, 0, ErrNoViableBump
}

// DeriveVaultAddress 金库地址 = PDA(["vault", authority], programID)
func DeriveVaultAddress(programID, authority string) (string, uint8, error) {
	pid, err := DecodeAddress(programID)
	if err != nil {
		return "", 0, fmt.Errorf("program id: %w", err)
	}
	auth, err := DecodeAddress(authority)
	if err != nil {
		return "", 0, fmt.Errorf("authority: %w", err)
	}
	addr, bump, err := FindProgramAddress([][]byte{[]byte(vaultSeed), auth}, pid)
	if err != nil {
		return "", 0, err
	}
	return EncodeAddress(addr), bump, nil
}
