package types

import (
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// 事件名
const (
	EventInitializeVault = "InitializeVaultEvent"
	EventDeposit         = "DepositEvent"
	EventWithdraw        = "WithdrawEvent"
	EventToggleLock      = "ToggleLockEvent"
)

var ErrUnknownEvent = errors.New("unknown event")

// Event 每次成功指令追加的一条通知
type Event interface {
	EventName() string
	// VaultAddress 事件所属金库，用于按金库索引
	VaultAddress() string
	fields() map[string]interface{}
}

type InitializeVaultEvent struct {
	Vault          string `json:"vault"`
	VaultAuthority string `json:"vault_authority"`
	Locked         bool   `json:"locked"`
}

func (e *InitializeVaultEvent) EventName() string    { return EventInitializeVault }
func (e *InitializeVaultEvent) VaultAddress() string { return e.Vault }
func (e *InitializeVaultEvent) fields() map[string]interface{} {
	return map[string]interface{}{
		"vault":           e.Vault,
		"vault_authority": e.VaultAuthority,
		"locked":          e.Locked,
	}
}

type DepositEvent struct {
	Amount uint64 `json:"amount"`
	User   string `json:"user"`
	Vault  string `json:"vault"`
}

func (e *DepositEvent) EventName() string    { return EventDeposit }
func (e *DepositEvent) VaultAddress() string { return e.Vault }
func (e *DepositEvent) fields() map[string]interface{} {
	return map[string]interface{}{
		"amount": strconv.FormatUint(e.Amount, 10),
		"user":   e.User,
		"vault":  e.Vault,
	}
}

type WithdrawEvent struct {
	Amount         uint64 `json:"amount"`
	VaultAuthority string `json:"vault_authority"`
	Vault          string `json:"vault"`
}

func (e *WithdrawEvent) EventName() string    { return EventWithdraw }
func (e *WithdrawEvent) VaultAddress() string { return e.Vault }
func (e *WithdrawEvent) fields() map[string]interface{} {
	return map[string]interface{}{
		"amount":          strconv.FormatUint(e.Amount, 10),
		"vault_authority": e.VaultAuthority,
		"vault":           e.Vault,
	}
}

type ToggleLockEvent struct {
	Vault          string `json:"vault"`
	VaultAuthority string `json:"vault_authority"`
	Locked         bool   `json:"locked"`
}

func (e *ToggleLockEvent) EventName() string    { return EventToggleLock }
func (e *ToggleLockEvent) VaultAddress() string { return e.Vault }
func (e *ToggleLockEvent) fields() map[string]interface{} {
	return map[string]interface{}{
		"vault":           e.Vault,
		"vault_authority": e.VaultAuthority,
		"locked":          e.Locked,
	}
}

// EventRecord 事件日志中的一条记录
type EventRecord struct {
	Seq    uint64
	TxID   string
	Height uint64
	Event  Event
}

// Marshal 编码为 protobuf Struct；u64 以十进制字符串保存，避免 float64 精度丢失
func (r *EventRecord) Marshal() ([]byte, error) {
	if r.Event == nil {
		return nil, fmt.Errorf("%w: nil payload", ErrUnknownEvent)
	}
	payload, err := structpb.NewStruct(r.Event.fields())
	if err != nil {
		return nil, err
	}
	envelope := &structpb.Struct{Fields: map[string]*structpb.Value{
		"seq":     structpb.NewStringValue(strconv.FormatUint(r.Seq, 10)),
		"tx_id":   structpb.NewStringValue(r.TxID),
		"height":  structpb.NewStringValue(strconv.FormatUint(r.Height, 10)),
		"name":    structpb.NewStringValue(r.Event.EventName()),
		"payload": structpb.NewStructValue(payload),
	}}
	return proto.MarshalOptions{Deterministic: true}.Marshal(envelope)
}

// UnmarshalEventRecord 解码 Marshal 的输出
func UnmarshalEventRecord(data []byte) (*EventRecord, error) {
	var envelope structpb.Struct
	if err := proto.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	f := envelope.GetFields()
	seq, err := strconv.ParseUint(f["seq"].GetStringValue(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode event seq: %w", err)
	}
	height, err := strconv.ParseUint(f["height"].GetStringValue(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode event height: %w", err)
	}
	p := f["payload"].GetStructValue().GetFields()
	str := func(k string) string { return p[k].GetStringValue() }
	amount := func() (uint64, error) { return strconv.ParseUint(str("amount"), 10, 64) }

	var ev Event
	switch name := f["name"].GetStringValue(); name {
	case EventInitializeVault:
		ev = &InitializeVaultEvent{Vault: str("vault"), VaultAuthority: str("vault_authority"), Locked: p["locked"].GetBoolValue()}
	case EventToggleLock:
		ev = &ToggleLockEvent{Vault: str("vault"), VaultAuthority: str("vault_authority"), Locked: p["locked"].GetBoolValue()}
	case EventDeposit:
		a, err := amount()
		if err != nil {
			return nil, fmt.Errorf("decode deposit amount: %w", err)
		}
		ev = &DepositEvent{Amount: a, User: str("user"), Vault: str("vault")}
	case EventWithdraw:
		a, err := amount()
		if err != nil {
			return nil, fmt.Errorf("decode withdraw amount: %w", err)
		}
		ev = &WithdrawEvent{Amount: a, VaultAuthority: str("vault_authority"), Vault: str("vault")}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	return &EventRecord{Seq: seq, TxID: f["tx_id"].GetStringValue(), Height: height, Event: ev}, nil
}
