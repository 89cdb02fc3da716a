package vm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"vault/config"
	"vault/db"
	"vault/keys"
	"vault/logs"
	"vault/stats"
	"vault/types"
	"vault/utils"
)

// Executor 金库程序的宿主运行时：验签、路由、快照回滚、落库
type Executor struct {
	mu        sync.Mutex
	DB        DBManager
	Reg       *HandlerRegistry
	Cache     SpecExecCache
	KFn       KindFn
	ReadFn    ReadThroughFn
	ProgramID string
	Metrics   *stats.Recorder // 按指令类型的成功/失败计数与耗时

	cfg          *config.Config
	appliedCache *lru.Cache // isTxApplied 缓存，只记录已执行的交易
	now          func() time.Time
}

// NewExecutor reg 为 nil 时按配置注册默认指令；cache 为 nil 时按配置创建
func NewExecutor(store DBManager, reg *HandlerRegistry, cache SpecExecCache, cfg *config.Config) (*Executor, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if reg == nil {
		reg = NewHandlerRegistry()
		if err := RegisterDefaultHandlers(reg, &cfg.Vault); err != nil {
			return nil, err
		}
	}
	if cache == nil {
		cache = NewSpecExecLRU(cfg.Executor.SpecCacheSize)
	}
	if !utils.ValidAddress(cfg.Vault.ProgramID) {
		return nil, fmt.Errorf("program id %q: %w", cfg.Vault.ProgramID, utils.ErrInvalidAddress)
	}
	applied, err := lru.New(cfg.Executor.SpecCacheSize * 1024)
	if err != nil {
		return nil, err
	}
	return &Executor{
		DB:           store,
		Reg:          reg,
		Cache:        cache,
		KFn:          DefaultKindFn,
		ReadFn:       store.Get,
		ProgramID:    cfg.Vault.ProgramID,
		Metrics:      stats.NewRecorder(0),
		cfg:          cfg,
		appliedCache: applied,
		now:          time.Now,
	}, nil
}

// SetKindFn 设置 Kind 提取函数
func (x *Executor) SetKindFn(fn KindFn) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.KFn = fn
}

// PreExecuteBatch 预执行批次（不写数据库）。结果按批次哈希缓存，Fund 会清空缓存
func (x *Executor) PreExecuteBatch(b *types.Batch) (*SpecResult, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.preExecuteBatch(b, true)
}

func (x *Executor) invalid(b *types.Batch, reason string) *SpecResult {
	return &SpecResult{
		BatchID:  b.Hash,
		ParentID: b.PrevHash,
		Height:   b.Height,
		Valid:    false,
		Reason:   reason,
	}
}

func (x *Executor) preExecuteBatch(b *types.Batch, useCache bool) (*SpecResult, error) {
	if b == nil {
		return nil, ErrNilBatch
	}
	if useCache {
		if cached, ok := x.Cache.Get(b.Hash); ok {
			return cached, nil
		}
	}
	if err := b.Validate(); err != nil {
		return x.invalid(b, err.Error()), nil
	}
	if len(b.Txs) > x.cfg.Executor.MaxTxsPerBatch {
		return x.invalid(b, fmt.Sprintf("too many txs: %d > %d", len(b.Txs), x.cfg.Executor.MaxTxsPerBatch)), nil
	}

	sv := NewStateView(x.ReadFn)
	receipts := make([]*Receipt, 0, len(b.Txs))
	seenTxIDs := make(map[string]struct{}, len(b.Txs))
	skippedDup, skippedApplied := 0, 0

	for idx, tx := range b.Txs {
		if tx == nil {
			return x.invalid(b, fmt.Sprintf("tx %d is nil", idx)), nil
		}
		txID := tx.GetTxId()
		if txID != "" {
			if _, exists := seenTxIDs[txID]; exists {
				skippedDup++
				continue
			}
			seenTxIDs[txID] = struct{}{}
			if x.isTxApplied(txID) {
				skippedApplied++
				continue
			}
		}

		rc := x.executeTx(sv, tx, b)
		receipts = append(receipts, rc)
	}
	if skippedDup > 0 || skippedApplied > 0 {
		logs.Debug("[VM] skipped txs in batch: height=%d hash=%s dup=%d applied=%d body=%d",
			b.Height, utils.ShortFingerprint(b.Hash), skippedDup, skippedApplied, len(b.Txs))
	}

	res := &SpecResult{
		BatchID:  b.Hash,
		ParentID: b.PrevHash,
		Height:   b.Height,
		Valid:    true,
		Receipts: receipts,
		Diff:     sv.Diff(),
	}
	if useCache {
		x.Cache.Put(res)
	}
	return res, nil
}

// executeTx 在快照上执行一条指令；失败时回滚并返回 FAILED 回执
func (x *Executor) executeTx(sv StateView, tx *types.AnyTx, b *types.Batch) *Receipt {
	snapshot := sv.Snapshot()
	start := time.Now()

	rc, err := x.runTx(sv, tx, b.Height)
	if rc == nil {
		rc = &Receipt{TxID: tx.GetTxId(), Kind: tx.Kind}
	}
	x.Metrics.Observe(rc.Kind, time.Since(start), err == nil)
	rc.BatchHeight = b.Height
	rc.Timestamp = b.Timestamp

	if err != nil {
		if rerr := sv.Revert(snapshot); rerr != nil {
			logs.Error("[VM] revert tx %s failed: %v", rc.TxID, rerr)
		}
		rc.Status = StatusFailed
		rc.Error = err.Error()
		rc.WriteCount = 0
		rc.Events = nil
		rc.EventSeqs = nil
		rc.err = err
		if code, name, ok := ErrorCode(err); ok {
			rc.ErrorCode = code
			rc.Code = name
		}
		logs.Info("[VM] tx %s (%s) FAILED at height %d: %v", utils.ShortFingerprint(rc.TxID), rc.Kind, b.Height, err)
		return rc
	}
	rc.Status = StatusSucceed
	return rc
}

func (x *Executor) runTx(sv StateView, tx *types.AnyTx, height uint64) (*Receipt, error) {
	// 1. 签名者与签名
	if tx.Signer == "" || tx.Signature == "" {
		return nil, ErrMissingSigner
	}
	if err := tx.VerifySignature(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureVerificationFailed, err)
	}

	// 2. 路由
	kind, err := x.KFn(tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownInstruction, err)
	}
	h, ok := x.Reg.Get(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstruction, kind)
	}

	// 3. 业务执行
	ctx := &Context{
		Signer:    tx.Signer,
		ProgramID: x.ProgramID,
		TxID:      tx.TxID,
		Height:    height,
		State:     sv,
	}
	ws, rc, err := h.DryRun(ctx, tx)
	if err != nil {
		return rc, err
	}

	// 4. 写集与事件进入同一个 overlay
	applyWrites(sv, ws)
	records, err := appendEvents(sv, ctx.Events(), tx.TxID, height)
	if err != nil {
		return rc, err
	}
	if rc == nil {
		rc = &Receipt{TxID: tx.TxID, Kind: kind, WriteCount: len(ws)}
	}
	rc.Events = records
	for _, r := range records {
		rc.EventSeqs = append(rc.EventSeqs, r.Seq)
	}
	return rc, nil
}

// CommitBatch 最终化提交：重新执行并写入数据库
func (x *Executor) CommitBatch(b *types.Batch) error {
	_, err := x.commitBatch(b)
	return err
}

func (x *Executor) commitBatch(b *types.Batch) (*SpecResult, error) {
	if b == nil {
		return nil, ErrNilBatch
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	if committed, hash := x.IsBatchCommitted(b.Height); committed {
		if hash == b.Hash {
			return nil, nil
		}
		return nil, fmt.Errorf("batch at height %d already committed with different hash: %s vs %s",
			b.Height, hash, b.Hash)
	}
	latest := x.latestHeight()
	if b.Height != latest+1 {
		return nil, fmt.Errorf("%w: latest=%d got=%d", ErrHeightGap, latest, b.Height)
	}
	if latest > 0 {
		_, parent := x.IsBatchCommitted(latest)
		if b.PrevHash != parent {
			return nil, fmt.Errorf("%w: height %d", ErrParentMismatch, b.Height)
		}
	}

	start := time.Now()
	// 提交前状态可能已变化，重新执行
	res, err := x.preExecuteBatch(b, false)
	if err != nil {
		return nil, fmt.Errorf("re-execute batch failed: %w", err)
	}
	if !res.Valid {
		return nil, fmt.Errorf("batch invalid: %s", res.Reason)
	}
	if err := x.applyResult(res, b); err != nil {
		x.Metrics.Observe("commit", time.Since(start), false)
		return nil, err
	}
	x.Metrics.Observe("commit", time.Since(start), true)
	x.CleanupCache(b.Height)
	return res, nil
}

// applyResult 唯一的落库入口：状态写集、回执、提交标记作为一个原子写组落盘
func (x *Executor) applyResult(res *SpecResult, b *types.Batch) error {
	tasks := make([]db.WriteTask, 0, len(res.Diff)+4*len(res.Receipts)+2)
	for _, w := range res.Diff {
		if w.Del {
			tasks = append(tasks, db.DelTask(w.Key))
		} else {
			tasks = append(tasks, db.SetTask(w.Key, w.Value))
		}
	}

	height := strconv.FormatUint(b.Height, 10)
	for _, rc := range res.Receipts {
		tasks = append(tasks,
			db.SetTask(keys.KeyVMAppliedTx(rc.TxID), []byte(rc.Status)),
			db.SetTask(keys.KeyVMTxHeight(rc.TxID), []byte(height)),
		)
		if rc.Error != "" {
			tasks = append(tasks, db.SetTask(keys.KeyVMTxError(rc.TxID), []byte(rc.Error)))
		}
		data, err := json.Marshal(rc)
		if err != nil {
			return fmt.Errorf("encode receipt %s: %w", rc.TxID, err)
		}
		tasks = append(tasks, db.SetTask(keys.KeyVMReceipt(rc.TxID), data))
	}

	tasks = append(tasks,
		db.SetTask(keys.KeyVMCommitHeight(b.Height), []byte(b.Hash)),
		db.SetTask(keys.KeyLatestHeight(), []byte(height)),
	)

	if err := x.DB.ApplyAtomic(tasks); err != nil {
		return fmt.Errorf("write batch %d: %w", b.Height, err)
	}
	for _, rc := range res.Receipts {
		x.appliedCache.Add(rc.TxID, struct{}{})
	}

	failed := 0
	for _, rc := range res.Receipts {
		if rc.Status == StatusFailed {
			failed++
		}
	}
	logs.Info("[VM] committed batch height=%d hash=%s txs=%d failed=%d writes=%d",
		b.Height, utils.ShortFingerprint(b.Hash), len(res.Receipts), failed, len(tasks))
	return nil
}

// Submit 把单条指令包装成下一个批次并提交，返回其回执。
// 指令失败时回执为 FAILED，error 为失败原因
func (x *Executor) Submit(tx *types.AnyTx) (*Receipt, error) {
	if tx == nil {
		return nil, ErrNilTx
	}
	if x.isTxApplied(tx.TxID) {
		rc, err := x.GetReceipt(tx.TxID)
		if err != nil {
			return nil, err
		}
		return rc, rc.Err()
	}

	latest := x.LatestHeight()
	_, parent := x.IsBatchCommitted(latest)
	b := types.NewBatch(latest+1, parent, x.now().Unix(), tx)
	res, err := x.commitBatch(b)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("batch %d committed concurrently", b.Height)
	}
	rc, ok := res.ReceiptFor(tx.TxID)
	if !ok {
		return nil, fmt.Errorf("no receipt for tx %s", tx.TxID)
	}
	return rc, rc.Err()
}

// Fund 直接给用户地址记账（创世 / 本地空投）。
// 这是金库程序之外的账本变更，不写事件；金库地址不在曲线上，只能通过 deposit 入账，
// 所以金库余额的每次变化仍然都有对应事件。
// 成功后清空预执行缓存，之前缓存的结果基于旧余额
func (x *Executor) Fund(addr string, amount uint64) error {
	raw, err := utils.DecodeAddress(addr)
	if err != nil {
		return err
	}
	if !utils.IsOnCurve(raw) {
		return fmt.Errorf("fund %s: not a user identity", addr)
	}
	if limit := x.cfg.Vault.MaxFundAmount; limit > 0 && amount > limit {
		return fmt.Errorf("fund %d exceeds limit %d", amount, limit)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	sv := NewStateView(x.ReadFn)
	w, err := creditWrite(sv, addr, amount)
	if err != nil {
		return fmt.Errorf("fund %s: %w", addr, err)
	}
	if err := x.DB.ApplyAtomic([]db.WriteTask{db.SetTask(w.Key, w.Value)}); err != nil {
		return fmt.Errorf("fund %s: %w", addr, err)
	}
	x.Cache.Purge()
	return nil
}

// IsBatchCommitted 返回指定高度是否已提交及其哈希
func (x *Executor) IsBatchCommitted(height uint64) (bool, string) {
	hash, err := x.DB.Get(keys.KeyVMCommitHeight(height))
	if err != nil || hash == nil {
		return false, ""
	}
	return true, string(hash)
}

// LatestHeight 最新已提交高度，未提交过时为 0
func (x *Executor) LatestHeight() uint64 {
	return x.latestHeight()
}

func (x *Executor) latestHeight() uint64 {
	raw, err := x.DB.Get(keys.KeyLatestHeight())
	if err != nil || raw == nil {
		return 0
	}
	h, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		logs.Warn("[VM] bad latest height %q: %v", raw, err)
		return 0
	}
	return h
}

// GetTransactionStatus SUCCEED / FAILED
func (x *Executor) GetTransactionStatus(txID string) (string, error) {
	status, err := x.DB.Get(keys.KeyVMAppliedTx(txID))
	if err != nil {
		return "", err
	}
	if status == nil {
		return "", fmt.Errorf("tx %s not found", txID)
	}
	return string(status), nil
}

// GetTransactionError 失败原因；成功的交易返回空串
func (x *Executor) GetTransactionError(txID string) (string, error) {
	msg, err := x.DB.Get(keys.KeyVMTxError(txID))
	if err != nil {
		return "", err
	}
	return string(msg), nil
}

// GetReceipt 读取持久化的回执
func (x *Executor) GetReceipt(txID string) (*Receipt, error) {
	raw, err := x.DB.Get(keys.KeyVMReceipt(txID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("receipt for tx %s not found", txID)
	}
	var rc Receipt
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("decode receipt %s: %w", txID, err)
	}
	for _, seq := range rc.EventSeqs {
		rec, err := x.eventAt(seq)
		if err != nil {
			return nil, err
		}
		rc.Events = append(rc.Events, rec)
	}
	return &rc, nil
}

func (x *Executor) isTxApplied(txID string) bool {
	if txID == "" {
		return false
	}
	if x.appliedCache.Contains(txID) {
		return true
	}
	applied, err := x.DB.Exists(keys.KeyVMAppliedTx(txID))
	if err != nil || !applied {
		return false
	}
	x.appliedCache.Add(txID, struct{}{})
	return true
}

// Stats 指令执行统计快照
func (x *Executor) Stats(reset bool) map[string]stats.Summary {
	return x.Metrics.Snapshot(reset)
}

// CleanupCache 只保留最近若干高度的预执行结果
func (x *Executor) CleanupCache(finalizedHeight uint64) {
	retain := x.cfg.Executor.CacheRetainHeights
	if finalizedHeight > retain {
		x.Cache.EvictBelow(finalizedHeight - retain)
	}
}
