package db

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v2"
)

// writeGroup 写队列的最小单位：一个 group 内的写要么全部落在同一个事务里，要么都不落
type writeGroup struct {
	tasks []WriteTask
	done  chan error
}

// 写队列运行统计
type writeQueueMetrics struct {
	groupTotal      uint64
	enqueueTotal    uint64
	flushBatchTotal uint64
	flushedTasks    uint64
	flushErrTotal   uint64
	maxDepth        uint64
}

// WriteQueueStats 写队列统计快照
type WriteQueueStats struct {
	Groups      uint64
	Enqueued    uint64
	Batches     uint64
	Flushed     uint64
	FlushErrors uint64
	MaxDepth    uint64
}

func (s WriteQueueStats) String() string {
	return fmt.Sprintf("groups=%d tasks=%d batches=%d flushed=%d errors=%d max_depth=%d",
		s.Groups, s.Enqueued, s.Batches, s.Flushed, s.FlushErrors, s.MaxDepth)
}

// InitWriteQueue 启动写 goroutine；maxBatchSize 是合并多个 group 时单个事务的任务数上限
func (manager *Manager) InitWriteQueue(maxBatchSize int) {
	if maxBatchSize <= 0 {
		maxBatchSize = manager.cfg.Database.MaxBatchSize
	}
	manager.maxBatchSize = maxBatchSize
	manager.metrics = writeQueueMetrics{}
	manager.writeQueueChan = make(chan writeGroup, manager.cfg.Database.WriteQueueSize)
	manager.stopChan = make(chan struct{})

	manager.wg.Add(1)
	go manager.runWriteQueue()
}

// Stats 当前写队列统计
func (manager *Manager) Stats() WriteQueueStats {
	m := &manager.metrics
	return WriteQueueStats{
		Groups:      atomic.LoadUint64(&m.groupTotal),
		Enqueued:    atomic.LoadUint64(&m.enqueueTotal),
		Batches:     atomic.LoadUint64(&m.flushBatchTotal),
		Flushed:     atomic.LoadUint64(&m.flushedTasks),
		FlushErrors: atomic.LoadUint64(&m.flushErrTotal),
		MaxDepth:    atomic.LoadUint64(&m.maxDepth),
	}
}

func (manager *Manager) observeQueueDepth() {
	q := uint64(len(manager.writeQueueChan))
	for {
		old := atomic.LoadUint64(&manager.metrics.maxDepth)
		if q <= old || atomic.CompareAndSwapUint64(&manager.metrics.maxDepth, old, q) {
			return
		}
	}
}

// 写队列的核心 goroutine：取到一个 group 后顺带合并已排队的 group，一次事务落盘
func (manager *Manager) runWriteQueue() {
	defer manager.wg.Done()

	pending := make([]writeGroup, 0, 16)
	for {
		select {
		case <-manager.stopChan:
			// 退出前把已排队的写刷掉
			for {
				pending = manager.collect(pending[:0], 0)
				if len(pending) == 0 {
					return
				}
				manager.flushGroups(pending)
			}

		case g := <-manager.writeQueueChan:
			pending = append(pending[:0], g)
			pending = manager.collect(pending, len(g.tasks))
			manager.flushGroups(pending)
		}
	}
}

// collect 非阻塞地合并已排队的 group，直到任务数达到 maxBatchSize
func (manager *Manager) collect(pending []writeGroup, n int) []writeGroup {
	for n < manager.maxBatchSize {
		select {
		case g := <-manager.writeQueueChan:
			pending = append(pending, g)
			n += len(g.tasks)
		default:
			return pending
		}
	}
	return pending
}

// ApplyAtomic 在一个 badger 事务里写入 tasks，返回时已落盘（或整体失败）。
// 先入队的 group 先落盘；事务过大时不拆分，返回 badger.ErrTxnTooBig
func (manager *Manager) ApplyAtomic(tasks []WriteTask) error {
	if len(tasks) == 0 {
		return nil
	}
	atomic.AddUint64(&manager.metrics.groupTotal, 1)
	atomic.AddUint64(&manager.metrics.enqueueTotal, uint64(len(tasks)))

	manager.mu.RLock()
	queue, stop := manager.writeQueueChan, manager.stopChan
	manager.mu.RUnlock()

	// 未启动写队列时直接同步写入
	if queue == nil {
		err := manager.writeTxn([]writeGroup{{tasks: tasks}})
		manager.observeFlush(len(tasks), err)
		return err
	}
	g := writeGroup{tasks: tasks, done: make(chan error, 1)}
	select {
	case queue <- g:
	case <-stop:
		return ErrClosed
	}
	manager.observeQueueDepth()

	select {
	case err := <-g.done:
		return err
	case <-stop:
		// 写 goroutine 退出前会刷掉已排队的 group；没赶上的视为失败
		manager.wg.Wait()
		select {
		case err := <-g.done:
			return err
		default:
			return ErrClosed
		}
	}
}

// flushGroups 把多个 group 合并进一个事务；事务过大时按 group 边界二分退让，
// 单个 group 永远不会被拆开
func (manager *Manager) flushGroups(groups []writeGroup) {
	if len(groups) == 0 {
		return
	}
	err := manager.writeTxn(groups)
	if errors.Is(err, badger.ErrTxnTooBig) && len(groups) > 1 {
		mid := len(groups) / 2
		manager.Logger.Warn("[flushGroups] txn too big (%d groups), splitting", len(groups))
		manager.flushGroups(groups[:mid])
		manager.flushGroups(groups[mid:])
		return
	}

	n := 0
	for _, g := range groups {
		n += len(g.tasks)
	}
	manager.observeFlush(n, err)
	if err != nil {
		manager.Logger.Error("[flushGroups] write %d tasks failed: %v", n, err)
	}
	for _, g := range groups {
		g.done <- err
		close(g.done)
	}
}

func (manager *Manager) observeFlush(tasks int, err error) {
	atomic.AddUint64(&manager.metrics.flushBatchTotal, 1)
	if err != nil {
		atomic.AddUint64(&manager.metrics.flushErrTotal, 1)
		return
	}
	atomic.AddUint64(&manager.metrics.flushedTasks, uint64(tasks))
}

func (manager *Manager) writeTxn(groups []writeGroup) error {
	db, err := manager.handle()
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		for _, g := range groups {
			for _, t := range g.tasks {
				var err error
				switch t.Op {
				case OpSet:
					err = txn.Set(t.Key, t.Value)
				case OpDelete:
					err = txn.Delete(t.Key)
				}
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}
