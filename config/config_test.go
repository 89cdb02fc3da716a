package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultProgramID, cfg.Vault.ProgramID)
	assert.True(t, cfg.Vault.LegacyAuthError)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(c *Config){
		"empty program id": func(c *Config) { c.Vault.ProgramID = "" },
		"no db path":       func(c *Config) { c.Database.Path = "" },
		"zero batch":       func(c *Config) { c.Database.MaxBatchSize = 0 },
		"zero cache":       func(c *Config) { c.Executor.SpecCacheSize = 0 },
		"zero txs":         func(c *Config) { c.Executor.MaxTxsPerBatch = 0 },
		"txs over limit":   func(c *Config) { c.Executor.MaxTxsPerBatch = MaxTxsPerBatchLimit + 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestInMemoryNeedsNoPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Path = ""
	cfg.Database.InMemory = true
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.yaml")
	body := `
vault:
  legacy_auth_error: false
database:
  in_memory: true
  max_batch_size: 50
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.Vault.LegacyAuthError)
	assert.True(t, cfg.Database.InMemory)
	assert.Equal(t, 50, cfg.Database.MaxBatchSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	// 未出现在文件里的字段保持默认
	assert.Equal(t, DefaultProgramID, cfg.Vault.ProgramID)
	assert.Equal(t, 100000, cfg.Database.WriteQueueSize)
}

func TestLoadFromFileEmptyPath(t *testing.T) {
	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vault: [oops"), 0o600))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}
