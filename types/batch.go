package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"vault/utils"
)

var ErrNilBatch = errors.New("nil batch")

// Batch 按高度排序的一组指令，相当于区块
type Batch struct {
	Height    uint64   `json:"height"`
	PrevHash  string   `json:"prev_hash"`
	Timestamp int64    `json:"timestamp"`
	Txs       []*AnyTx `json:"txs"`
	Hash      string   `json:"hash"`
}

// NewBatch 创建并封装批次
func NewBatch(height uint64, prevHash string, timestamp int64, txs ...*AnyTx) *Batch {
	b := &Batch{Height: height, PrevHash: prevHash, Timestamp: timestamp, Txs: txs}
	b.Seal()
	return b
}

// ComputeHash 高度、父哈希、时间戳与交易 ID 的摘要
func (b *Batch) ComputeHash() string {
	var buf bytes.Buffer
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], b.Height)
	buf.Write(n[:])
	buf.WriteString(b.PrevHash)
	binary.BigEndian.PutUint64(n[:], uint64(b.Timestamp))
	buf.Write(n[:])
	for _, tx := range b.Txs {
		buf.WriteString(tx.GetTxId())
		buf.WriteByte('|')
	}
	return utils.DigestHex(buf.Bytes())
}

// Seal 写入 Hash
func (b *Batch) Seal() {
	b.Hash = b.ComputeHash()
}

// Validate 基本结构检查
func (b *Batch) Validate() error {
	if b == nil {
		return ErrNilBatch
	}
	if b.Hash == "" {
		return fmt.Errorf("empty batch hash")
	}
	if b.Hash != b.ComputeHash() {
		return fmt.Errorf("batch hash mismatch at height %d", b.Height)
	}
	if b.Height == 0 && b.PrevHash != "" {
		return fmt.Errorf("genesis batch should not have parent")
	}
	return nil
}
