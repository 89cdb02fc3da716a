package vm

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// safe_math.go 余额相关的带溢出检查运算

var (
	// ErrUnderflow 减法下溢（结果为负数），归入 Overflow 错误码
	ErrUnderflow = fmt.Errorf("arithmetic underflow: %w", ErrOverflow)
	// ErrInvalidBalance 无效的余额格式
	ErrInvalidBalance = errors.New("invalid balance format")
)

// SafeAdd a + b，超过 math.MaxUint64 返回 ErrOverflow
func SafeAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// SafeSub a - b，a < b 返回 ErrUnderflow
func SafeSub(a, b uint64) (uint64, error) {
	if a < b {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// ParseBalance 解析十进制余额；空值视为 0
func ParseBalance(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrInvalidBalance
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidBalance
	}
	return v, nil
}

func formatBalance(v uint64) []byte {
	return []byte(strconv.FormatUint(v, 10))
}
