// Package listing 实现有界、可过滤、按 id 升序的分页查询。
package listing

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/SlpAus/aureates-pokedex-backend/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Request 是规范化之后的分页参数
type Request struct {
	Page  int
	Limit int
}

// Normalize 对页码与条数做默认值与上限处理：
// 页码小于 1 时取 1，条数小于 1 时取 20，超过 100 时截断为 100
func Normalize(page, limit int) Request {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Request{Page: page, Limit: limit}
}

// Parse 从查询字符串解析分页参数，非法值按缺省处理
func Parse(page, limit string) Request {
	return Normalize(atoiOrZero(page), atoiOrZero(limit))
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// Offset 返回 (page-1)*limit；乘积溢出时返回 math.MaxInt，使该页为空
func (r Request) Offset() int {
	if r.Page <= 1 || r.Limit <= 0 {
		return 0
	}
	if r.Page-1 > math.MaxInt/r.Limit {
		return math.MaxInt
	}
	return (r.Page - 1) * r.Limit
}

func (r Request) page() store.Page {
	return store.Page{Offset: r.Offset(), Limit: r.Limit}
}

// Result 是分页查询的返回结构，Total 为分页前的匹配总数
type Result[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Run 并发执行一页查询与总数统计，并用 project 生成对外投影
func Run[T, V any](ctx context.Context, c store.Collection[T], f store.Filter, r Request, project func(T) V) (Result[V], error) {
	r = Normalize(r.Page, r.Limit)

	var (
		rows  []T
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = c.Find(gctx, f, r.page())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = c.Count(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result[V]{}, err
	}

	items := make([]V, 0, len(rows))
	for _, row := range rows {
		items = append(items, project(row))
	}
	return Result[V]{Items: items, Total: total, Page: r.Page, Limit: r.Limit}, nil
}
