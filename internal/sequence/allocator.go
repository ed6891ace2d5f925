// Package sequence 为每种实体分配唯一且严格递增的整数ID。
// 正确性依赖存储引擎自身的原子自增，不使用进程内锁。
package sequence

import (
	"context"
	"errors"
	"strings"
)

// 实体种类，对应计数器的键
const (
	KindMaster  = "master"
	KindAbility = "ability"
)

var ErrEmptyKind = errors.New("sequence kind must not be empty")

// Allocator 原子地执行"读取、加一、返回新值"。
// 计数器不存在时在同一步中创建，第一次分配得到 1。
type Allocator interface {
	Next(ctx context.Context, kind string) (int64, error)
}

func checkKind(kind string) error {
	if strings.TrimSpace(kind) == "" {
		return ErrEmptyKind
	}
	return nil
}
