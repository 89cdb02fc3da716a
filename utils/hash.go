package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/spaolacci/murmur3"
)

// MurmurHash 使用Murmur3哈希算法，小端 8 字节
func MurmurHash(data []byte) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, murmur3.Sum64(data))
	return b
}

// ShortFingerprint 日志里用的短指纹（murmur3 的十六进制）
func ShortFingerprint(s string) string {
	return hex.EncodeToString(MurmurHash([]byte(s)))
}

func Sha256Hash(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// Digest 签名摘要：单次 sha256
func Digest(data []byte) []byte {
	return chainhash.HashB(data)
}

// DigestHex 交易 ID 等场景用的十六进制摘要
func DigestHex(data []byte) string {
	return hex.EncodeToString(Digest(data))
}
