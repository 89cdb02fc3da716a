package main

import (
	"flag"
	"fmt"
	"os"

	"vault/config"
	"vault/db"
	"vault/logs"
	"vault/types"
	"vault/utils"
	"vault/vm"
)

type actor struct {
	name string
	kp   *utils.KeyPair
}

func main() {
	cfgPath := flag.String("config", "", "YAML 配置文件路径")
	dbPath := flag.String("db", "", "数据库目录（覆盖配置）")
	memory := flag.Bool("memory", false, "使用内存数据库")
	logLevel := flag.String("log-level", "", "日志级别 trace/debug/verbose/info/warn/error")
	airdrop := flag.String("airdrop", "10", "每个演示账户的初始 SOL")
	flag.Parse()

	if err := run(*cfgPath, *dbPath, *memory, *logLevel, *airdrop); err != nil {
		logs.Error("vaultd: %v", err)
		os.Exit(1)
	}
}

func run(cfgPath, dbPath string, memory bool, logLevel, airdrop string) error {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if memory {
		cfg.Database.InMemory = true
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := logs.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logs.SetLevel(level)
	logs.NodeTag = "[vaultd]"

	store, err := db.Open(cfg, logs.Default())
	if err != nil {
		return err
	}
	defer func() {
		logs.Info("write queue: %s", store.Stats())
		store.Close()
	}()

	x, err := vm.NewExecutor(store, nil, nil, cfg)
	if err != nil {
		return err
	}
	logs.Info("program=%s latest_height=%d", cfg.Vault.ProgramID, x.LatestHeight())

	fund, err := utils.ParseSOL(airdrop)
	if err != nil {
		return err
	}
	alice, bob, anatoly, err := newActors(x, fund)
	if err != nil {
		return err
	}
	vault, err := x.VaultAddressOf(alice.kp.Address())
	if err != nil {
		return err
	}
	fmt.Printf("vault of %s: %s\n", alice.name, vault)

	sol := func(s string) uint64 {
		v, err := utils.ParseSOL(s)
		if err != nil {
			panic(err)
		}
		return v
	}
	var nonce uint64
	step := func(who actor, tx *types.AnyTx) {
		nonce++
		tx.Nonce = nonce
		if err := tx.Sign(who.kp); err != nil {
			logs.Error("sign %s: %v", tx.Kind, err)
			return
		}
		rc, err := x.Submit(tx)
		switch {
		case err != nil && rc == nil:
			fmt.Printf("%-8s %-12s error: %v\n", who.name, tx.Kind, err)
		case err != nil:
			fmt.Printf("%-8s %-12s FAILED %s (%d)\n", who.name, tx.Kind, rc.Code, rc.ErrorCode)
		default:
			fmt.Printf("%-8s %-12s ok height=%d events=%v\n", who.name, tx.Kind, rc.BatchHeight, rc.EventSeqs)
		}
	}

	step(alice, types.NewInitVaultTx("", vault, false, 0))
	step(bob, types.NewDepositTx("", vault, sol("1"), 0))
	step(anatoly, types.NewDepositTx("", vault, sol("0.5"), 0))
	step(alice, types.NewToggleLockTx("", vault, 0))
	step(bob, types.NewDepositTx("", vault, sol("1"), 0))
	step(alice, types.NewToggleLockTx("", vault, 0))
	step(anatoly, types.NewWithdrawTx("", vault, sol("0.1"), 0))
	step(alice, types.NewWithdrawTx("", vault, sol("1.2"), 0))
	step(alice, types.NewWithdrawTx("", vault, sol("5"), 0))

	if err := report(x, vault, alice, bob, anatoly); err != nil {
		return err
	}
	for name, s := range x.Stats(false) {
		logs.Info("stats %-12s ok=%d failed=%d p50=%v max=%v", name, s.Succeeded, s.Failed, s.P50, s.Max)
	}
	return nil
}

func newActors(x *vm.Executor, fund uint64) (actor, actor, actor, error) {
	out := make([]actor, 0, 3)
	for _, name := range []string{"alice", "bob", "anatoly"} {
		kp, err := utils.GenerateKeyPair()
		if err != nil {
			return actor{}, actor{}, actor{}, err
		}
		if err := x.Fund(kp.Address(), fund); err != nil {
			return actor{}, actor{}, actor{}, err
		}
		out = append(out, actor{name: name, kp: kp})
	}
	return out[0], out[1], out[2], nil
}

func report(x *vm.Executor, vault string, actors ...actor) error {
	info, err := x.GetVault(vault)
	if err != nil {
		return err
	}
	fmt.Printf("\nvault %s authority=%s locked=%v balance=%s SOL\n",
		vault, info.Authority, info.Locked, utils.FormatSOL(info.Balance))
	for _, a := range actors {
		bal, err := x.GetBalance(a.kp.Address())
		if err != nil {
			return err
		}
		fmt.Printf("  %-8s %s SOL\n", a.name, utils.FormatSOL(bal))
	}

	evs, err := x.Events(vault)
	if err != nil {
		return err
	}
	fmt.Printf("\nevents (%d):\n", len(evs))
	for _, e := range evs {
		switch ev := e.Event.(type) {
		case *types.InitializeVaultEvent:
			fmt.Printf("  #%d %s locked=%v\n", e.Seq, ev.EventName(), ev.Locked)
		case *types.DepositEvent:
			fmt.Printf("  #%d %s %s SOL from %s\n", e.Seq, ev.EventName(), utils.FormatSOL(ev.Amount), ev.User)
		case *types.WithdrawEvent:
			fmt.Printf("  #%d %s %s SOL to %s\n", e.Seq, ev.EventName(), utils.FormatSOL(ev.Amount), ev.VaultAuthority)
		case *types.ToggleLockEvent:
			fmt.Printf("  #%d %s locked=%v\n", e.Seq, ev.EventName(), ev.Locked)
		}
	}
	return nil
}
