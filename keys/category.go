// keys/category.go
// Key 分类：可变状态 vs 不可变流水
package keys

import "strings"

// KeyCategory 定义 Key 的存储归属
type KeyCategory int

const (
	CategoryKV    KeyCategory = iota // 不可变流水/索引（事件、回执、提交标记）
	CategoryState                    // 可变状态（金库、余额）
)

var statePrefixes = []string{
	"v1_vault_",   // 金库记录
	"v1_balance_", // 原生币余额
}

// 以状态前缀开头但属于流水的 key
var excludeFromState = []string{
	"v1_vault_events_",
}

// CategorizeKey 判断 key 属于状态还是流水
func CategorizeKey(key string) KeyCategory {
	for _, ex := range excludeFromState {
		if strings.HasPrefix(key, ex) {
			return CategoryKV
		}
	}
	for _, prefix := range statePrefixes {
		if strings.HasPrefix(key, prefix) {
			return CategoryState
		}
	}
	return CategoryKV
}

// IsStatefulKey 是否为可变状态
func IsStatefulKey(key string) bool {
	return CategorizeKey(key) == CategoryState
}

// CategoryName 写集里用的分类名
func CategoryName(key string) string {
	switch {
	case strings.HasPrefix(key, "v1_vault_events_"):
		return "index"
	case strings.HasPrefix(key, "v1_vault_"):
		return "vault"
	case strings.HasPrefix(key, "v1_balance_"):
		return "balance"
	case strings.HasPrefix(key, "v1_event_"):
		return "event"
	case strings.HasPrefix(key, "v1_vm_"):
		return "receipt"
	}
	return "meta"
}
