package vm_test

import (
	"sort"
	"strings"
	"sync"

	vdb "vault/db"
)

// ========== Mock 数据库实现 ==========

type MockDB struct {
	mu      sync.RWMutex
	data    map[string][]byte
	groups  int   // ApplyAtomic 调用次数
	failErr error // 非 nil 时 ApplyAtomic 整组失败
}

func NewMockDB() *MockDB {
	return &MockDB{
		data: make(map[string][]byte),
	}
}

func (db *MockDB) Get(key string) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	val, exists := db.data[key]
	if !exists {
		return nil, nil
	}
	return val, nil
}

func (db *MockDB) Scan(prefix string) (map[string][]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make(map[string][]byte)
	for k, v := range db.data {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}

func (db *MockDB) Exists(key string) (bool, error) {
	v, err := db.Get(key)
	return v != nil, err
}

func (db *MockDB) ScanKeysFrom(prefix, start string, limit int) ([]string, [][]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var ks []string
	for k := range db.data {
		if strings.HasPrefix(k, prefix) && k >= start {
			ks = append(ks, k)
		}
	}
	sort.Strings(ks)
	if limit > 0 && len(ks) > limit {
		ks = ks[:limit]
	}
	vs := make([][]byte, len(ks))
	for i, k := range ks {
		vs[i] = db.data[k]
	}
	return ks, vs, nil
}

// ApplyAtomic 整组写在一把锁内完成
func (db *MockDB) ApplyAtomic(tasks []vdb.WriteTask) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.failErr != nil {
		return db.failErr
	}
	db.groups++
	for _, t := range tasks {
		switch t.Op {
		case vdb.OpSet:
			db.data[string(t.Key)] = append([]byte(nil), t.Value...)
		case vdb.OpDelete:
			delete(db.data, string(t.Key))
		}
	}
	return nil
}

func (db *MockDB) snapshot() map[string]string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make(map[string]string, len(db.data))
	for k, v := range db.data {
		out[k] = string(v)
	}
	return out
}
