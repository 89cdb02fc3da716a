package utils

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidSignature  = errors.New("invalid signature")
)

// KeyPair 保存一个签名者的私钥和地址（x-only 公钥的 base58）
type KeyPair struct {
	priv    *btcec.PrivateKey
	address string
}

// GenerateKeyPair 随机生成一个新的签名者
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return newKeyPair(priv), nil
}

// KeyPairFromHex 从 32 字节 hex 私钥恢复
func KeyPairFromHex(privHex string) (*KeyPair, error) {
	raw, err := hex.DecodeString(privHex)
	if err != nil || len(raw) != 32 {
		return nil, ErrInvalidPrivateKey
	}
	priv, _ := btcec.PrivKeyFromBytes(raw)
	if priv.Key.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return newKeyPair(priv), nil
}

func newKeyPair(priv *btcec.PrivateKey) *KeyPair {
	return &KeyPair{
		priv:    priv,
		address: EncodeAddress(schnorr.SerializePubKey(priv.PubKey())),
	}
}

// Address base58 身份
func (k *KeyPair) Address() string {
	return k.address
}

// PrivateKeyHex 私钥 hex（仅用于本地演示/测试持久化）
func (k *KeyPair) PrivateKeyHex() string {
	return hex.EncodeToString(k.priv.Serialize())
}

// Sign 对 msg 的 sha256 摘要做 BIP340 签名，返回 64 字节签名的 hex
func (k *KeyPair) Sign(msg []byte) (string, error) {
	sig, err := schnorr.Sign(k.priv, Digest(msg))
	if err != nil {
		return "", fmt.Errorf("schnorr sign: %w", err)
	}
	return hex.EncodeToString(sig.Serialize()), nil
}

// VerifySignature 校验 address 对 msg 的签名
func VerifySignature(address string, msg []byte, sigHex string) error {
	pubBytes, err := DecodeAddress(address)
	if err != nil {
		return err
	}
	pub, err := schnorr.ParsePubKey(pubBytes)
	if err != nil {
		return fmt.Errorf("%w: signer is not a valid public key", ErrInvalidSignature)
	}
	raw, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("%w: bad hex", ErrInvalidSignature)
	}
	sig, err := schnorr.ParseSignature(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !sig.Verify(Digest(msg), pub) {
		return ErrInvalidSignature
	}
	return nil
}

// IsOnCurve 32 字节是否为合法的 x-only 公钥
func IsOnCurve(b []byte) bool {
	_, err := schnorr.ParsePubKey(b)
	return err == nil
}
