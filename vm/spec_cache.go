package vm

import (
	lru "github.com/hashicorp/golang-lru"
)

// specLRU 预执行结果缓存，键为批次哈希
type specLRU struct {
	c *lru.Cache
}

// NewSpecExecLRU 创建 LRU 缓存
func NewSpecExecLRU(capacity int) SpecExecCache {
	if capacity <= 0 {
		capacity = 64
	}
	c, _ := lru.New(capacity) // 仅在 capacity<=0 时出错
	return &specLRU{c: c}
}

func (s *specLRU) Get(batchID string) (*SpecResult, bool) {
	v, ok := s.c.Get(batchID)
	if !ok {
		return nil, false
	}
	return v.(*SpecResult), true
}

func (s *specLRU) Put(res *SpecResult) {
	if res == nil || res.BatchID == "" {
		return
	}
	s.c.Add(res.BatchID, res)
}

// EvictBelow 清理低于指定高度的缓存项
func (s *specLRU) EvictBelow(height uint64) {
	for _, k := range s.c.Keys() {
		v, ok := s.c.Peek(k)
		if !ok {
			continue
		}
		if v.(*SpecResult).Height < height {
			s.c.Remove(k)
		}
	}
}

// Size 返回缓存大小
func (s *specLRU) Size() int {
	return s.c.Len()
}

func (s *specLRU) Purge() {
	s.c.Purge()
}
