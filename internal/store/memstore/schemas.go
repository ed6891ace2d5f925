package memstore

import (
	"strings"

	"github.com/SlpAus/aureates-pokedex-backend/internal/ability"
	"github.com/SlpAus/aureates-pokedex-backend/internal/master"
	"github.com/SlpAus/aureates-pokedex-backend/internal/store"
)

func matchID(id int64, f store.Filter) bool {
	if f.ID != nil && *f.ID != id {
		return false
	}
	if f.ExcludeID != nil && *f.ExcludeID == id {
		return false
	}
	return true
}

// NewMasters 创建内存中的 Master 集合，NameKey 唯一
func NewMasters() *Collection[master.Master] {
	return New(Schema[master.Master]{
		ID: func(m *master.Master) int64 { return m.ID },
		Match: func(m *master.Master, f store.Filter) bool {
			if !matchID(m.ID, f) || f.MasterID != nil {
				return false
			}
			if f.NameKey != "" && m.NameKey != f.NameKey {
				return false
			}
			if f.NameContains != "" && !strings.Contains(m.NameKey, f.NameContains) {
				return false
			}
			return f.Status == "" || string(m.Status) == f.Status
		},
		Unique: func(m *master.Master) string { return m.NameKey },
		Clone: func(m master.Master) master.Master {
			if m.Image != nil {
				m.Image = append([]byte(nil), m.Image...)
			}
			return m
		},
	})
}

// NewAbilities 创建内存中的 Ability 集合
func NewAbilities() *Collection[ability.Ability] {
	return New(Schema[ability.Ability]{
		ID: func(a *ability.Ability) int64 { return a.ID },
		Match: func(a *ability.Ability, f store.Filter) bool {
			if !matchID(a.ID, f) || f.NameKey != "" || f.NameContains != "" {
				return false
			}
			if f.MasterID != nil && a.MasterID != *f.MasterID {
				return false
			}
			return f.Status == "" || string(a.Status) == f.Status
		},
	})
}
