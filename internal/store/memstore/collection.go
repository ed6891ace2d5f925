// Package memstore 提供进程内的 store.Collection 实现，用于测试与本地开发。
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/SlpAus/aureates-pokedex-backend/internal/store"
)

// Schema 描述如何从记录中读取主键、唯一键以及如何匹配过滤条件
type Schema[T any] struct {
	ID    func(*T) int64
	Match func(*T, store.Filter) bool
	// Unique 返回需要唯一的次级键，返回空串表示不参与唯一性检查
	Unique func(*T) string
	// Clone 返回记录的深拷贝，防止调用方与存储共享切片
	Clone func(T) T
}

// Collection 是受读写锁保护的内存集合
type Collection[T any] struct {
	mu     sync.RWMutex
	rows   map[int64]T
	schema Schema[T]
}

func New[T any](schema Schema[T]) *Collection[T] {
	if schema.Clone == nil {
		schema.Clone = func(v T) T { return v }
	}
	return &Collection[T]{
		rows:   make(map[int64]T),
		schema: schema,
	}
}

// sortedMatches 在持有读锁时调用
func (c *Collection[T]) sortedMatches(f store.Filter) []T {
	out := make([]T, 0, len(c.rows))
	for _, rec := range c.rows {
		r := rec
		if c.schema.Match(&r, f) {
			out = append(out, c.schema.Clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return c.schema.ID(&out[i]) < c.schema.ID(&out[j])
	})
	return out
}

func (c *Collection[T]) FindOne(_ context.Context, f store.Filter) (*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := c.sortedMatches(f)
	if len(matches) == 0 {
		return nil, store.ErrNotFound
	}
	return &matches[0], nil
}

func (c *Collection[T]) Find(_ context.Context, f store.Filter, p store.Page) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := c.sortedMatches(f)
	if p.Offset >= len(matches) {
		return []T{}, nil
	}
	matches = matches[max(p.Offset, 0):]
	if p.Limit > 0 && p.Limit < len(matches) {
		matches = matches[:p.Limit]
	}
	return matches, nil
}

func (c *Collection[T]) Count(_ context.Context, f store.Filter) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	for _, rec := range c.rows {
		r := rec
		if c.schema.Match(&r, f) {
			n++
		}
	}
	return n, nil
}

// uniqueTaken 在持有写锁时调用
func (c *Collection[T]) uniqueTaken(rec *T) bool {
	if c.schema.Unique == nil {
		return false
	}
	key := c.schema.Unique(rec)
	if key == "" {
		return false
	}
	id := c.schema.ID(rec)
	for otherID, other := range c.rows {
		o := other
		if otherID != id && c.schema.Unique(&o) == key {
			return true
		}
	}
	return false
}

func (c *Collection[T]) Insert(_ context.Context, rec *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.schema.ID(rec)
	if _, exists := c.rows[id]; exists || c.uniqueTaken(rec) {
		return store.ErrDuplicate
	}
	c.rows[id] = c.schema.Clone(*rec)
	return nil
}

func (c *Collection[T]) Update(_ context.Context, rec *T) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.schema.ID(rec)
	if _, exists := c.rows[id]; !exists {
		return 0, nil
	}
	if c.uniqueTaken(rec) {
		return 0, store.ErrDuplicate
	}
	c.rows[id] = c.schema.Clone(*rec)
	return 1, nil
}

func (c *Collection[T]) Delete(_ context.Context, f store.Filter) (int64, error) {
	if f.IsEmpty() {
		return 0, store.ErrEmptyFilter
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	for id, rec := range c.rows {
		r := rec
		if c.schema.Match(&r, f) {
			delete(c.rows, id)
			n++
		}
	}
	return n, nil
}
