package db

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v2"

	"vault/config"
	"vault/logs"
)

var ErrClosed = errors.New("database is not initialized or closed")

// Manager 封装 BadgerDB 的管理器
type Manager struct {
	Db *badger.DB
	mu sync.RWMutex

	// 写 goroutine 从这里取写请求（每个 group 一个事务）
	writeQueueChan chan writeGroup
	// 通知写队列 goroutine 停止
	stopChan chan struct{}
	metrics  writeQueueMetrics

	// 合并多个 group 时单个事务最多多少条
	maxBatchSize int
	wg           sync.WaitGroup

	Logger logs.Logger
	cfg    *config.Config
}

// NewManager 按配置打开数据库；InMemory 模式不落盘（测试与演示）
func NewManager(cfg *config.Config, logger logs.Logger) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logs.Default()
	}

	var opts badger.Options
	if cfg.Database.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// badger v2 不自动创建父目录
		if err := os.MkdirAll(cfg.Database.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create db dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Database.Path)
		opts.ValueLogFileSize = cfg.Database.ValueLogFileSize
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Manager{
		Db:     db,
		Logger: logger,
		cfg:    cfg,
	}, nil
}

// Open 打开数据库并按配置启动写队列
func Open(cfg *config.Config, logger logs.Logger) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	m, err := NewManager(cfg, logger)
	if err != nil {
		return nil, err
	}
	m.InitWriteQueue(cfg.Database.MaxBatchSize)
	return m, nil
}

func (manager *Manager) handle() (*badger.DB, error) {
	manager.mu.RLock()
	db := manager.Db
	manager.mu.RUnlock()
	if db == nil {
		return nil, ErrClosed
	}
	return db, nil
}

// Get 读取 key；不存在时返回 (nil, nil)
func (manager *Manager) Get(key string) ([]byte, error) {
	db, err := manager.handle()
	if err != nil {
		return nil, err
	}
	var value []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Exists key 是否存在
func (manager *Manager) Exists(key string) (bool, error) {
	v, err := manager.Get(key)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// Scan 返回指定前缀的所有键值对
func (manager *Manager) Scan(prefix string) (map[string][]byte, error) {
	return manager.ScanKVWithLimit(prefix, 0)
}

// ScanKVWithLimit 按 key 升序扫描前缀，最多 limit 条（0 表示不限）
func (manager *Manager) ScanKVWithLimit(prefix string, limit int) (map[string][]byte, error) {
	db, err := manager.handle()
	if err != nil {
		return nil, err
	}
	result := make(map[string][]byte)
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if limit > 0 && len(result) >= limit {
				break
			}
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[string(item.KeyCopy(nil))] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ScanKeysFrom 从 start 开始按序返回前缀下最多 limit 个键值对（保持顺序）
func (manager *Manager) ScanKeysFrom(prefix, start string, limit int) ([]string, [][]byte, error) {
	db, err := manager.handle()
	if err != nil {
		return nil, nil, err
	}
	var ks []string
	var vs [][]byte
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seek := start
		if seek < prefix {
			seek = prefix
		}
		for it.Seek([]byte(seek)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if limit > 0 && len(ks) >= limit {
				break
			}
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			ks = append(ks, string(item.KeyCopy(nil)))
			vs = append(vs, v)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ks, vs, nil
}

func (manager *Manager) Close() {
	// 1. 通知写队列 goroutine 停止并等待退出（退出前会刷掉已排队的写）
	if manager.stopChan != nil {
		select {
		case <-manager.stopChan:
		default:
			close(manager.stopChan)
		}
	}
	manager.wg.Wait()

	// 2. 关闭 DB
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.writeQueueChan = nil
	manager.stopChan = nil
	if manager.Db != nil {
		_ = manager.Db.Close()
		manager.Db = nil
	}
}
