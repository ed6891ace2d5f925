package memstore

import (
	"context"
	"testing"

	"github.com/SlpAus/aureates-pokedex-backend/internal/ability"
	"github.com/SlpAus/aureates-pokedex-backend/internal/master"
	"github.com/SlpAus/aureates-pokedex-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMastersUniqueNameKey(t *testing.T) {
	ctx := context.Background()
	c := NewMasters()

	p := &master.Master{ID: 1}
	p.SetName("Pikachu")
	require.NoError(t, c.Insert(ctx, p))

	dup := &master.Master{ID: 2}
	dup.SetName("PIKACHU")
	assert.ErrorIs(t, c.Insert(ctx, dup), store.ErrDuplicate)

	sameID := &master.Master{ID: 1}
	sameID.SetName("Mew")
	assert.ErrorIs(t, c.Insert(ctx, sameID), store.ErrDuplicate)

	// 重写自身不算冲突
	p.SetName("PIKACHU")
	n, err := c.Update(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUpdateDoesNotCreate(t *testing.T) {
	ctx := context.Background()
	c := NewMasters()

	ghost := &master.Master{ID: 5}
	ghost.SetName("Missingno")
	n, err := c.Update(ctx, ghost)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = c.FindOne(ctx, store.ByID(5))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMastersCloneImage(t *testing.T) {
	ctx := context.Background()
	c := NewMasters()

	m := &master.Master{ID: 1, Image: []byte{1, 2, 3}, ImageType: "image/png"}
	m.SetName("Pikachu")
	require.NoError(t, c.Insert(ctx, m))
	m.Image[0] = 9

	got, err := c.FindOne(ctx, store.ByID(1))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.Image)
}

func TestAbilitiesFindPagesInIDOrder(t *testing.T) {
	ctx := context.Background()
	c := NewAbilities()
	for _, id := range []int64{5, 3, 1, 4, 2} {
		require.NoError(t, c.Insert(ctx, &ability.Ability{ID: id, MasterID: id % 2}))
	}

	rows, err := c.Find(ctx, store.Filter{}, store.Page{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].ID)
	assert.Equal(t, int64(3), rows[1].ID)

	n, err := c.Count(ctx, store.ByMasterID(1))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	deleted, err := c.Delete(ctx, store.ByMasterID(1))
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	_, err = c.Delete(ctx, store.Filter{})
	assert.ErrorIs(t, err, store.ErrEmptyFilter)

	// 名称条件不适用于 Ability，不匹配任何记录
	n, err = c.Count(ctx, store.Filter{NameKey: "x"})
	require.NoError(t, err)
	assert.Zero(t, n)
}
