// Package store 定义了业务核心依赖的最小持久化契约。
// 具体实现见 gormstore（关系型引擎）与 memstore（进程内假存储）。
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound 表示按条件找不到记录
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 表示写入违反了主键或唯一索引
	ErrDuplicate = errors.New("duplicate key")
	// ErrEmptyFilter 表示拒绝执行没有任何条件的批量删除
	ErrEmptyFilter = errors.New("refusing to delete with an empty filter")
)

// Filter 是两类实体共用的查询条件，各字段之间为 AND 关系。
// 零值字段不参与过滤。
type Filter struct {
	ID        *int64
	ExcludeID *int64

	// NameKey 精确匹配折叠后的名称
	NameKey string
	// NameContains 在折叠后的名称上做子串匹配，调用方负责先折叠
	NameContains string

	MasterID *int64
	Status   string
}

// IsEmpty 报告过滤条件是否为空
func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// ByID 构造按主键查询的条件
func ByID(id int64) Filter {
	return Filter{ID: &id}
}

// ByMasterID 构造按所属 Master 查询的条件
func ByMasterID(id int64) Filter {
	return Filter{MasterID: &id}
}

// Page 描述一次有界查询；Limit 为 0 表示不限制
type Page struct {
	Offset int
	Limit  int
}

// Collection 是单一实体集合的持久化接口。
// Find 的结果总是按 id 升序排列。
type Collection[T any] interface {
	FindOne(ctx context.Context, f Filter) (*T, error)
	Find(ctx context.Context, f Filter, p Page) ([]T, error)
	Count(ctx context.Context, f Filter) (int64, error)

	// Insert 只创建，主键或唯一键已存在时返回 ErrDuplicate
	Insert(ctx context.Context, rec *T) error
	// Update 按主键整体覆盖已存在的记录并返回受影响条数；记录不存在时返回 0，不会创建。
	// 新的唯一键与其他记录冲突时返回 ErrDuplicate
	Update(ctx context.Context, rec *T) (int64, error)
	// Delete 删除所有匹配的记录并返回删除条数
	Delete(ctx context.Context, f Filter) (int64, error)
}
