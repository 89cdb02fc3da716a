package vm

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"

	"vault/keys"
	"vault/types"
)

// nextEventSeq 下一个事件序号，从 1 开始
func nextEventSeq(sv StateView) (uint64, error) {
	raw, ok, err := sv.Get(keys.KeyEventSeq())
	if err != nil {
		return 0, err
	}
	if !ok {
		return 1, nil
	}
	return ParseBalance(string(raw))
}

func loadEventIndex(sv StateView, vault string) (*roaring.Bitmap, error) {
	bm := roaring.New()
	raw, ok, err := sv.Get(keys.KeyVaultEvents(vault))
	if err != nil {
		return nil, err
	}
	if ok {
		if err := bm.UnmarshalBinary(raw); err != nil {
			return nil, fmt.Errorf("decode event index %s: %w", vault, err)
		}
	}
	return bm, nil
}

// appendEvents 把事件写入日志并更新按金库的位图索引，和状态写入同在一个 overlay
func appendEvents(sv StateView, evs []types.Event, txID string, height uint64) ([]*types.EventRecord, error) {
	if len(evs) == 0 {
		return nil, nil
	}
	seq, err := nextEventSeq(sv)
	if err != nil {
		return nil, fmt.Errorf("read event seq: %w", err)
	}
	records := make([]*types.EventRecord, 0, len(evs))
	for _, ev := range evs {
		if seq > math.MaxUint32 {
			return nil, fmt.Errorf("event seq %d exceeds index range", seq)
		}
		rec := &types.EventRecord{Seq: seq, TxID: txID, Height: height, Event: ev}
		data, err := rec.Marshal()
		if err != nil {
			return nil, err
		}
		sv.Set(keys.KeyEvent(seq), data)

		bm, err := loadEventIndex(sv, ev.VaultAddress())
		if err != nil {
			return nil, err
		}
		bm.Add(uint32(seq))
		idx, err := bm.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("encode event index: %w", err)
		}
		sv.Set(keys.KeyVaultEvents(ev.VaultAddress()), idx)

		records = append(records, rec)
		seq++
	}
	sv.Set(keys.KeyEventSeq(), formatBalance(seq))
	return records, nil
}
