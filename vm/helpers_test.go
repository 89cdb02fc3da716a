package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vault/config"
	"vault/types"
	"vault/utils"
	"vault/vm"
)

type testEnv struct {
	t     *testing.T
	db    *MockDB
	x     *vm.Executor
	nonce uint64
}

func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.InMemory = true
	if mutate != nil {
		mutate(cfg)
	}
	db := NewMockDB()
	x, err := vm.NewExecutor(db, nil, nil, cfg)
	require.NoError(t, err)
	return &testEnv{t: t, db: db, x: x}
}

func (e *testEnv) user(fund uint64) *utils.KeyPair {
	e.t.Helper()
	kp, err := utils.GenerateKeyPair()
	require.NoError(e.t, err)
	if fund > 0 {
		require.NoError(e.t, e.x.Fund(kp.Address(), fund))
	}
	return kp
}

func (e *testEnv) vaultOf(kp *utils.KeyPair) string {
	e.t.Helper()
	addr, err := e.x.VaultAddressOf(kp.Address())
	require.NoError(e.t, err)
	return addr
}

// sign 填充递增 nonce 并签名
func (e *testEnv) sign(kp *utils.KeyPair, tx *types.AnyTx) *types.AnyTx {
	e.t.Helper()
	e.nonce++
	tx.Nonce = e.nonce
	require.NoError(e.t, tx.Sign(kp))
	return tx
}

func (e *testEnv) submit(kp *utils.KeyPair, tx *types.AnyTx) (*vm.Receipt, error) {
	e.t.Helper()
	return e.x.Submit(e.sign(kp, tx))
}

func (e *testEnv) initVault(kp *utils.KeyPair, locked bool) string {
	e.t.Helper()
	v := e.vaultOf(kp)
	rc, err := e.submit(kp, types.NewInitVaultTx("", v, locked, 0))
	require.NoError(e.t, err)
	require.True(e.t, rc.Succeeded())
	return v
}

func (e *testEnv) deposit(kp *utils.KeyPair, vault string, amount uint64) (*vm.Receipt, error) {
	return e.submit(kp, types.NewDepositTx("", vault, amount, 0))
}

func (e *testEnv) withdraw(kp *utils.KeyPair, vault string, amount uint64) (*vm.Receipt, error) {
	return e.submit(kp, types.NewWithdrawTx("", vault, amount, 0))
}

func (e *testEnv) toggle(kp *utils.KeyPair, vault string) (*vm.Receipt, error) {
	return e.submit(kp, types.NewToggleLockTx("", vault, 0))
}

func (e *testEnv) vault(addr string) *vm.VaultInfo {
	e.t.Helper()
	info, err := e.x.GetVault(addr)
	require.NoError(e.t, err)
	return info
}

func (e *testEnv) balance(addr string) uint64 {
	e.t.Helper()
	b, err := e.x.GetBalance(addr)
	require.NoError(e.t, err)
	return b
}

func (e *testEnv) events(vault string) []*types.EventRecord {
	e.t.Helper()
	evs, err := e.x.Events(vault)
	require.NoError(e.t, err)
	return evs
}
