// config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultProgramID 金库程序地址（base58，32 字节），参与金库地址派生
const DefaultProgramID = "ARmiAGe6oAEq5BKguHydD3zt2n5PkV2Q5PLA1McuMkJT"

// MaxTxsPerBatchLimit 单批次交易数上限。一个批次的全部写入在一个 badger 事务里提交，
// 每条指令约 10 个 key（余额、金库、事件、索引、回执），3000 条远低于默认选项下的事务上限
const MaxTxsPerBatchLimit = 3000

// Config 主配置结构
type Config struct {
	Vault    VaultConfig    `yaml:"vault"`
	Database DatabaseConfig `yaml:"database"`
	Executor ExecutorConfig `yaml:"executor"`
	Log      LogConfig      `yaml:"log"`
}

// VaultConfig 金库程序配置
type VaultConfig struct {
	// ProgramID 参与金库地址派生的程序 ID
	ProgramID string `yaml:"program_id"`
	// LegacyAuthError 为 true（默认）时，非 authority 提款返回 VaultLocked（与旧程序逐字节兼容），
	// 否则返回独立的 Unauthorized
	LegacyAuthError bool `yaml:"legacy_auth_error"`
	// MaxFundAmount 单次 Fund（本地空投）上限，0 表示不限制
	MaxFundAmount uint64 `yaml:"max_fund_amount"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Path 为空且 InMemory=false 时不允许
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`

	// BadgerDB配置
	ValueLogFileSize int64 `yaml:"value_log_file_size"` // 64 << 20 (64MB)

	// 写队列配置：合并多个原子写组时单个事务的条数上限
	MaxBatchSize   int `yaml:"max_batch_size"`   // 1000
	WriteQueueSize int `yaml:"write_queue_size"` // 100000
}

// ExecutorConfig 执行器配置
type ExecutorConfig struct {
	// 预执行结果缓存条数
	SpecCacheSize int `yaml:"spec_cache_size"` // 64
	// 保留最近多少个高度的预执行结果
	CacheRetainHeights uint64 `yaml:"cache_retain_heights"` // 100
	// 单个批次最多交易数
	MaxTxsPerBatch int `yaml:"max_txs_per_batch"` // 2500
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // trace/debug/verbose/info/warn/error
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Vault: VaultConfig{
			ProgramID:       DefaultProgramID,
			LegacyAuthError: true,
			MaxFundAmount:   0,
		},
		Database: DatabaseConfig{
			Path:             "./data",
			InMemory:         false,
			ValueLogFileSize: 64 << 20,
			MaxBatchSize:     1000,
			WriteQueueSize:   100000,
		},
		Executor: ExecutorConfig{
			SpecCacheSize:      64,
			CacheRetainHeights: 100,
			MaxTxsPerBatch:     2500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile 在默认配置之上叠加 YAML 文件；文件里没写的字段保持默认值
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 验证配置合法性
func (c *Config) Validate() error {
	if c.Vault.ProgramID == "" {
		return fmt.Errorf("vault.program_id must not be empty")
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database.path required unless database.in_memory is set")
	}
	if c.Database.MaxBatchSize <= 0 {
		return fmt.Errorf("database.max_batch_size must be positive")
	}
	if c.Database.WriteQueueSize <= 0 {
		return fmt.Errorf("database.write_queue_size must be positive")
	}
	if c.Executor.SpecCacheSize <= 0 {
		return fmt.Errorf("executor.spec_cache_size must be positive")
	}
	if c.Executor.MaxTxsPerBatch <= 0 || c.Executor.MaxTxsPerBatch > MaxTxsPerBatchLimit {
		return fmt.Errorf("executor.max_txs_per_batch must be in [1, %d]", MaxTxsPerBatchLimit)
	}
	return nil
}
