// Package gormstore 用 GORM 实现 store.Collection，支持 SQLite 与 PostgreSQL。
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SlpAus/aureates-pokedex-backend/internal/store"
	"gorm.io/gorm"
)

// Collection 是基于 GORM 的泛型集合。
// T 需要包含 id 列；按名称过滤的集合需要 name_key 列，按 Master 过滤的需要 master_id 列。
type Collection[T any] struct {
	db *gorm.DB
}

var _ store.Collection[struct{}] = (*Collection[struct{}])(nil)

func New[T any](db *gorm.DB) *Collection[T] {
	return &Collection[T]{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (c *Collection[T]) scope(ctx context.Context, f store.Filter) *gorm.DB {
	q := c.db.WithContext(ctx).Model(new(T))
	if f.ID != nil {
		q = q.Where("id = ?", *f.ID)
	}
	if f.ExcludeID != nil {
		q = q.Where("id <> ?", *f.ExcludeID)
	}
	if f.NameKey != "" {
		q = q.Where("name_key = ?", f.NameKey)
	}
	if f.NameContains != "" {
		q = q.Where(`name_key LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(f.NameContains)+"%")
	}
	if f.MasterID != nil {
		q = q.Where("master_id = ?", *f.MasterID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	default:
		return err
	}
}

func (c *Collection[T]) FindOne(ctx context.Context, f store.Filter) (*T, error) {
	var rec T
	if err := c.scope(ctx, f).Order("id asc").Take(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (c *Collection[T]) Find(ctx context.Context, f store.Filter, p store.Page) ([]T, error) {
	q := c.scope(ctx, f).Order("id asc")
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	out := make([]T, 0)
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (c *Collection[T]) Count(ctx context.Context, f store.Filter) (int64, error) {
	var n int64
	if err := c.scope(ctx, f).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (c *Collection[T]) Insert(ctx context.Context, rec *T) error {
	return translate(c.db.WithContext(ctx).Create(rec).Error)
}

// Update 使用带主键条件的 UPDATE；与 Save 不同，0 行受影响时不会回退为 INSERT
func (c *Collection[T]) Update(ctx context.Context, rec *T) (int64, error) {
	res := c.db.WithContext(ctx).Model(rec).Select("*").Updates(rec)
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (c *Collection[T]) Delete(ctx context.Context, f store.Filter) (int64, error) {
	if f.IsEmpty() {
		return 0, store.ErrEmptyFilter
	}
	res := c.scope(ctx, f).Delete(new(T))
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}
