package sequence

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryAllocator 是单进程内的分配器，用于测试与内存存储
type MemoryAllocator struct {
	counters sync.Map // kind -> *atomic.Int64
}

func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{}
}

func (a *MemoryAllocator) Next(_ context.Context, kind string) (int64, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	v, _ := a.counters.LoadOrStore(kind, new(atomic.Int64))
	return v.(*atomic.Int64).Add(1), nil
}
