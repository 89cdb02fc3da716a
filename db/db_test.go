package db

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault/config"
	"vault/logs"
)

func newMemManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.InMemory = true
	mgr, err := Open(cfg, logs.Default())
	require.NoError(t, err)
	t.Cleanup(mgr.Close)
	return mgr
}

func set(k, v string) WriteTask { return SetTask(k, []byte(v)) }

func TestGetMissingKey(t *testing.T) {
	mgr := newMemManager(t)

	v, err := mgr.Get("v1_nothing")
	require.NoError(t, err)
	assert.Nil(t, v)

	ok, err := mgr.Exists("v1_nothing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyAtomicVisibleOnReturn(t *testing.T) {
	mgr := newMemManager(t)

	require.NoError(t, mgr.ApplyAtomic([]WriteTask{set("v1_a", "1"), set("v1_b", "2")}))
	v, err := mgr.Get("v1_a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, mgr.ApplyAtomic([]WriteTask{DelTask("v1_a")}))
	ok, err := mgr.Exists("v1_a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mgr.ApplyAtomic(nil))

	st := mgr.Stats()
	assert.Equal(t, uint64(2), st.Groups)
	assert.Equal(t, uint64(3), st.Enqueued)
	assert.Equal(t, uint64(3), st.Flushed)
	assert.Zero(t, st.FlushErrors)
	assert.Contains(t, st.String(), "groups=2")
}

func TestWriteOrderWithinGroup(t *testing.T) {
	mgr := newMemManager(t)

	require.NoError(t, mgr.ApplyAtomic([]WriteTask{
		set("v1_k", "old"),
		DelTask("v1_k"),
		set("v1_k", "new"),
	}))

	v, err := mgr.Get("v1_k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
}

func TestScanPrefix(t *testing.T) {
	mgr := newMemManager(t)

	tasks := []WriteTask{set("v1_vault_x", "other")}
	for i := 0; i < 5; i++ {
		tasks = append(tasks, set(fmt.Sprintf("v1_event_%020d", i), fmt.Sprint(i)))
	}
	require.NoError(t, mgr.ApplyAtomic(tasks))

	all, err := mgr.Scan("v1_event_")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	limited, err := mgr.ScanKVWithLimit("v1_event_", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	ks, vs, err := mgr.ScanKeysFrom("v1_event_", fmt.Sprintf("v1_event_%020d", 3), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{
		fmt.Sprintf("v1_event_%020d", 3),
		fmt.Sprintf("v1_event_%020d", 4),
	}, ks)
	assert.Equal(t, []byte("3"), vs[0])

	ks, _, err = mgr.ScanKeysFrom("v1_event_", "", 2)
	require.NoError(t, err)
	assert.Len(t, ks, 2)
	assert.Equal(t, fmt.Sprintf("v1_event_%020d", 0), ks[0])
}

// 并发写组会被合并进同一个事务，各自都能拿到结果
func TestConcurrentGroupsCoalesce(t *testing.T) {
	mgr := newMemManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, mgr.ApplyAtomic([]WriteTask{
				set(fmt.Sprintf("v1_c_%d_a", i), "x"),
				set(fmt.Sprintf("v1_c_%d_b", i), "x"),
			}))
		}(i)
	}
	wg.Wait()

	all, err := mgr.Scan("v1_c_")
	require.NoError(t, err)
	assert.Len(t, all, 32)
	st := mgr.Stats()
	assert.Equal(t, uint64(16), st.Groups)
	assert.LessOrEqual(t, st.Batches, uint64(16))
}

// 合并阈值再小，一个写组也只落在一个事务里
func TestGroupIsNeverSplit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.InMemory = true
	mgr, err := NewManager(cfg, nil)
	require.NoError(t, err)
	mgr.InitWriteQueue(1)
	defer mgr.Close()

	const rounds = 200
	stop := make(chan struct{})
	var torn int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			_ = mgr.Db.View(func(txn *badger.Txn) error {
				if readValue(txn, "v1_pair_a") != readValue(txn, "v1_pair_b") {
					torn++
				}
				return nil
			})
		}
	}()

	for i := 1; i <= rounds; i++ {
		val := fmt.Sprint(i)
		require.NoError(t, mgr.ApplyAtomic([]WriteTask{set("v1_pair_a", val), set("v1_pair_b", val)}))
	}
	close(stop)
	wg.Wait()
	assert.Zero(t, torn)
}

func TestTooBigGroupWritesNothing(t *testing.T) {
	mgr := newMemManager(t)

	// 条目数超过 badger 单事务上限
	tasks := make([]WriteTask, 0, 300000)
	for i := 0; i < cap(tasks); i++ {
		tasks = append(tasks, set(fmt.Sprintf("v1_big_%07d", i), "x"))
	}
	err := mgr.ApplyAtomic(tasks)
	require.ErrorIs(t, err, badger.ErrTxnTooBig)

	ok, err := mgr.Exists("v1_big_0000000")
	require.NoError(t, err)
	assert.False(t, ok)

	// 失败不影响后续写
	require.NoError(t, mgr.ApplyAtomic([]WriteTask{set("v1_after", "ok")}))
	assert.Equal(t, uint64(1), mgr.Stats().FlushErrors)
}

func TestDirectWriteWithoutQueue(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.InMemory = true
	mgr, err := NewManager(cfg, nil)
	require.NoError(t, err)
	defer mgr.Close()

	require.NoError(t, mgr.ApplyAtomic([]WriteTask{set("v1_direct", "ok")}))
	v, err := mgr.Get("v1_direct")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), v)
}

func TestPersistAcrossReopen(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.Path = t.TempDir()

	mgr, err := Open(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.ApplyAtomic([]WriteTask{set("v1_persist", "yes")}))
	mgr.Close()

	// 关闭之后的写直接报错
	assert.ErrorIs(t, mgr.ApplyAtomic([]WriteTask{set("v1_late", "x")}), ErrClosed)

	mgr, err = Open(cfg, nil)
	require.NoError(t, err)
	defer mgr.Close()
	v, err := mgr.Get("v1_persist")
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), v)

	mgr2 := &Manager{Logger: logs.Default()}
	_, err = mgr2.Get("x")
	assert.ErrorIs(t, err, ErrClosed)
}

func readValue(txn *badger.Txn, key string) string {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return ""
	}
	v, err := item.ValueCopy(nil)
	if err != nil {
		return ""
	}
	return string(v)
}
