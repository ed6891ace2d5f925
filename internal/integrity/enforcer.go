// Package integrity 是 Master 与 Ability 集合唯一的写入者。
// 它在每次写入前执行唯一性与外键校验，负责分配ID与级联删除，
// 并把所有业务规则违例归类为 apperr 中的错误种类。
package integrity

import (
	"errors"
	"time"

	"github.com/SlpAus/aureates-pokedex-backend/internal/ability"
	"github.com/SlpAus/aureates-pokedex-backend/internal/master"
	"github.com/SlpAus/aureates-pokedex-backend/internal/media"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
	"github.com/SlpAus/aureates-pokedex-backend/internal/sequence"
	"github.com/SlpAus/aureates-pokedex-backend/internal/store"
)

// Enforcer 本身不持有可变状态，所有状态都在存储引擎中
type Enforcer struct {
	masters   store.Collection[master.Master]
	abilities store.Collection[ability.Ability]
	seq       sequence.Allocator
	images    *media.Manager
	now       func() time.Time
}

func New(masters store.Collection[master.Master], abilities store.Collection[ability.Ability], seq sequence.Allocator) *Enforcer {
	return &Enforcer{
		masters:   masters,
		abilities: abilities,
		seq:       seq,
		images:    media.NewManager(masters),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// storageErr 把存储层错误归类；ErrNotFound 与 ErrDuplicate 应由调用方先行处理
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return apperr.Storage(op, err)
}

func isDuplicate(err error) bool { return errors.Is(err, store.ErrDuplicate) }
func isNotFound(err error) bool  { return errors.Is(err, store.ErrNotFound) }

// checkExplicitID 校验调用方给出的ID
func checkExplicitID(id *int64) error {
	if id != nil && *id < 1 {
		return apperr.Validation("id must be a positive integer")
	}
	return nil
}
