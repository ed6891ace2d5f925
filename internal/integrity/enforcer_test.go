package integrity

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/SlpAus/aureates-pokedex-backend/internal/ability"
	"github.com/SlpAus/aureates-pokedex-backend/internal/listing"
	"github.com/SlpAus/aureates-pokedex-backend/internal/master"
	"github.com/SlpAus/aureates-pokedex-backend/internal/media"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/aureates-pokedex-backend/internal/sequence"
	"github.com/SlpAus/aureates-pokedex-backend/internal/store"
	"github.com/SlpAus/aureates-pokedex-backend/internal/store/gormstore"
	"github.com/SlpAus/aureates-pokedex-backend/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

type fixture struct {
	enf       *Enforcer
	masters   store.Collection[master.Master]
	abilities store.Collection[ability.Ability]
	seq       sequence.Allocator
}

func newFixture(masters store.Collection[master.Master], abilities store.Collection[ability.Ability], seq sequence.Allocator) fixture {
	return fixture{
		enf:       New(masters, abilities, seq),
		masters:   masters,
		abilities: abilities,
		seq:       seq,
	}
}

func newMemFixture(t *testing.T) fixture {
	t.Helper()
	return newFixture(memstore.NewMasters(), memstore.NewAbilities(), sequence.NewMemoryAllocator())
}

func newGormFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t, master.MigrateDB, ability.MigrateDB, sequence.MigrateDB)
	return newFixture(gormstore.New[master.Master](db), gormstore.New[ability.Ability](db), sequence.NewDBAllocator(db))
}

// hookedCollection 在第一次满足 when 的 FindOne 返回之后执行 then，用来在读与写之间插入并发操作
type hookedCollection[T any] struct {
	store.Collection[T]
	when  func(store.Filter) bool
	then  func()
	fired bool
}

func (h *hookedCollection[T]) FindOne(ctx context.Context, f store.Filter) (*T, error) {
	rec, err := h.Collection.FindOne(ctx, f)
	if !h.fired && h.when(f) {
		h.fired = true
		h.then()
	}
	return rec, err
}

func byID(id int64) func(store.Filter) bool {
	return func(f store.Filter) bool { return f.ID != nil && *f.ID == id }
}

// forEachBackend 在内存实现与 SQLite 实现上分别运行同一组断言
func forEachBackend(t *testing.T, fn func(t *testing.T, fx fixture)) {
	t.Run("memory", func(t *testing.T) { fn(t, newMemFixture(t)) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newGormFixture(t)) })
}

func mustMaster(t *testing.T, e *Enforcer, name string) master.View {
	t.Helper()
	v, err := e.CreateMaster(context.Background(), CreateMasterInput{Name: name})
	require.NoError(t, err)
	return v
}

func mustAbility(t *testing.T, e *Enforcer, masterID int64, name string) ability.Ability {
	t.Helper()
	a, err := e.CreateAbility(context.Background(), CreateAbilityInput{
		MasterID: masterID,
		Ability:  name,
		Type:     "electric",
		Damage:   40,
	})
	require.NoError(t, err)
	return a
}

func TestCreateMasterAssignsSequentialIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		a := mustMaster(t, fx.enf, "Pikachu")
		b := mustMaster(t, fx.enf, "Raichu")

		assert.Equal(t, int64(1), a.ID)
		assert.Equal(t, int64(2), b.ID)
		assert.Equal(t, master.StatusActive, a.Status)
		assert.False(t, a.HasImage)
		assert.False(t, a.CreatedAt.IsZero())
	})
}

func TestCreateMasterConcurrentIDsAreDistinct(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		const k = 32
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids []int64
		)
		for i := 0; i < k; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, err := fx.enf.CreateMaster(context.Background(), CreateMasterInput{Name: fmt.Sprintf("Master-%02d", i)})
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				ids = append(ids, v.ID)
				mu.Unlock()
			}(i)
		}
		wg.Wait()

		require.Len(t, ids, k)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for i, id := range ids {
			assert.Equal(t, int64(i+1), id)
		}
	})
}

func TestCreateMasterNameIsCaseInsensitiveUnique(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		mustMaster(t, fx.enf, "Pikachu")

		_, err := fx.enf.CreateMaster(ctx, CreateMasterInput{Name: "PIKACHU"})
		assert.True(t, apperr.IsConflict(err), "got %v", err)

		_, err = fx.enf.CreateMaster(ctx, CreateMasterInput{Name: "  pikachu  "})
		assert.True(t, apperr.IsConflict(err), "got %v", err)

		// 冲突不消耗序列号
		r := mustMaster(t, fx.enf, "Raichu")
		assert.Equal(t, int64(2), r.ID)
	})
}

func TestCreateMasterValidation(t *testing.T) {
	long := make([]byte, master.NameMaxLen+1)
	for i := range long {
		long[i] = 'a'
	}
	bad := int64(0)

	tests := []struct {
		name string
		in   CreateMasterInput
	}{
		{name: "empty name", in: CreateMasterInput{Name: "   "}},
		{name: "name too long", in: CreateMasterInput{Name: string(long)}},
		{name: "unknown status", in: CreateMasterInput{Name: "Mew", Status: "retired"}},
		{name: "non-positive id", in: CreateMasterInput{ID: &bad, Name: "Mew"}},
	}

	fx := newMemFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.enf.CreateMaster(context.Background(), tt.in)
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}
}

func TestCreateMasterExplicitIDCollision(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		id := int64(2)
		v, err := fx.enf.CreateMaster(ctx, CreateMasterInput{ID: &id, Name: "Mew"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), v.ID)

		_, err = fx.enf.CreateMaster(ctx, CreateMasterInput{ID: &id, Name: "Mewtwo"})
		assert.True(t, apperr.IsConflict(err), "got %v", err)

		// 显式ID不推进计数器：第一次分配得到 1，第二次撞上 2
		assert.Equal(t, int64(1), mustMaster(t, fx.enf, "Eevee").ID)
		_, err = fx.enf.CreateMaster(ctx, CreateMasterInput{Name: "Jolteon"})
		assert.True(t, apperr.IsConflict(err), "got %v", err)
	})
}

func TestMasterImageRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		img, err := media.Normalize(testPNG, "", media.DefaultMaxBytes)
		require.NoError(t, err)

		v, err := fx.enf.CreateMaster(ctx, CreateMasterInput{Name: "Pikachu", Image: &img})
		require.NoError(t, err)
		assert.True(t, v.HasImage)
		assert.Equal(t, "image/png", v.ImageType)

		got, err := fx.enf.GetMasterImage(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, testPNG, got.Data)
		assert.Equal(t, "image/png", got.MimeType)

		plain := mustMaster(t, fx.enf, "Raichu")
		_, err = fx.enf.GetMasterImage(ctx, plain.ID)
		assert.True(t, apperr.IsNotFound(err))

		_, err = fx.enf.GetMasterImage(ctx, 404)
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestUpdateMaster(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		p := mustMaster(t, fx.enf, "Pikachu")
		mustMaster(t, fx.enf, "Raichu")

		renamed := "RAICHU"
		_, err := fx.enf.UpdateMaster(ctx, p.ID, UpdateMasterInput{Name: &renamed})
		assert.True(t, apperr.IsConflict(err), "got %v", err)

		// 只改变自身名称的大小写不算冲突
		self := "PIKACHU"
		v, err := fx.enf.UpdateMaster(ctx, p.ID, UpdateMasterInput{Name: &self})
		require.NoError(t, err)
		assert.Equal(t, "PIKACHU", v.Name)

		inactive := string(master.StatusInactive)
		v, err = fx.enf.UpdateMaster(ctx, p.ID, UpdateMasterInput{Status: &inactive})
		require.NoError(t, err)
		assert.Equal(t, master.StatusInactive, v.Status)
		assert.Equal(t, "PIKACHU", v.Name)

		_, err = fx.enf.UpdateMaster(ctx, 999, UpdateMasterInput{Name: &renamed})
		assert.True(t, apperr.IsNotFound(err), "got %v", err)
	})
}

func TestCreateAbilityRequiresExistingMaster(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		_, err := fx.enf.CreateAbility(ctx, CreateAbilityInput{MasterID: 1, Ability: "Thunderbolt", Type: "electric", Damage: 90})
		assert.True(t, apperr.IsValidation(err), "got %v", err)

		m := mustMaster(t, fx.enf, "Pikachu")
		a, err := fx.enf.CreateAbility(ctx, CreateAbilityInput{MasterID: m.ID, Ability: "Thunderbolt", Type: "electric", Damage: 90})
		require.NoError(t, err)
		assert.Equal(t, int64(1), a.ID)
		assert.Equal(t, m.ID, a.MasterID)

		res, err := fx.enf.ListAbilities(ctx, AbilityQuery{MasterID: &m.ID})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, a.ID, res.Items[0].ID)
	})
}

func TestCreateAbilityValidation(t *testing.T) {
	fx := newMemFixture(t)
	m := mustMaster(t, fx.enf, "Pikachu")

	tests := []struct {
		name string
		in   CreateAbilityInput
	}{
		{name: "empty ability", in: CreateAbilityInput{MasterID: m.ID, Type: "electric"}},
		{name: "empty type", in: CreateAbilityInput{MasterID: m.ID, Ability: "Tackle"}},
		{name: "type too long", in: CreateAbilityInput{MasterID: m.ID, Ability: "Tackle", Type: "abcdefghijklmnopqrstu"}},
		{name: "negative damage", in: CreateAbilityInput{MasterID: m.ID, Ability: "Tackle", Type: "normal", Damage: -1}},
		{name: "damage too high", in: CreateAbilityInput{MasterID: m.ID, Ability: "Tackle", Type: "normal", Damage: 1000}},
		{name: "bad status", in: CreateAbilityInput{MasterID: m.ID, Ability: "Tackle", Type: "normal", Status: "gone"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.enf.CreateAbility(context.Background(), tt.in)
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}
}

func TestUpdateAbility(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		p := mustMaster(t, fx.enf, "Pikachu")
		r := mustMaster(t, fx.enf, "Raichu")
		a := mustAbility(t, fx.enf, p.ID, "Thunderbolt")

		damage := 120
		got, err := fx.enf.UpdateAbility(ctx, a.ID, UpdateAbilityInput{MasterID: &r.ID, Damage: &damage})
		require.NoError(t, err)
		assert.Equal(t, r.ID, got.MasterID)
		assert.Equal(t, 120, got.Damage)
		assert.Equal(t, "Thunderbolt", got.Ability)

		missing := int64(99)
		_, err = fx.enf.UpdateAbility(ctx, a.ID, UpdateAbilityInput{MasterID: &missing})
		assert.True(t, apperr.IsValidation(err), "got %v", err)

		_, err = fx.enf.UpdateAbility(ctx, 42, UpdateAbilityInput{Damage: &damage})
		assert.True(t, apperr.IsNotFound(err), "got %v", err)
	})
}

func TestDeleteMasterCascades(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		p := mustMaster(t, fx.enf, "Pikachu")
		r := mustMaster(t, fx.enf, "Raichu")
		mustAbility(t, fx.enf, p.ID, "Thunderbolt")
		mustAbility(t, fx.enf, p.ID, "Quick Attack")
		kept := mustAbility(t, fx.enf, r.ID, "Thunder")

		n, err := fx.enf.DeleteMaster(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		_, err = fx.enf.GetMaster(ctx, p.ID)
		assert.True(t, apperr.IsNotFound(err))

		res, err := fx.enf.ListAbilities(ctx, AbilityQuery{})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, kept.ID, res.Items[0].ID)

		_, err = fx.enf.DeleteMaster(ctx, p.ID)
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestDeleteAbility(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		p := mustMaster(t, fx.enf, "Pikachu")
		a := mustAbility(t, fx.enf, p.ID, "Thunderbolt")

		require.NoError(t, fx.enf.DeleteAbility(ctx, a.ID))
		assert.True(t, apperr.IsNotFound(fx.enf.DeleteAbility(ctx, a.ID)))

		_, err := fx.enf.GetAbility(ctx, a.ID)
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestListMastersPagination(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		for i := 1; i <= 25; i++ {
			mustMaster(t, fx.enf, fmt.Sprintf("Master %02d", i))
		}

		res, err := fx.enf.ListMasters(context.Background(), MasterQuery{Request: listing.Request{Page: 2, Limit: 10}})
		require.NoError(t, err)
		assert.Equal(t, int64(25), res.Total)
		assert.Equal(t, 2, res.Page)
		assert.Equal(t, 10, res.Limit)
		require.Len(t, res.Items, 10)
		for i, v := range res.Items {
			assert.Equal(t, int64(11+i), v.ID)
		}

		res, err = fx.enf.ListMasters(context.Background(), MasterQuery{Request: listing.Request{Page: 9, Limit: 10}})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.NotNil(t, res.Items)
		assert.Equal(t, int64(25), res.Total)
	})
}

func TestListMastersFilters(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		mustMaster(t, fx.enf, "Pikachu")
		mustMaster(t, fx.enf, "Raichu")
		mustMaster(t, fx.enf, "Bulbasaur")
		_, err := fx.enf.CreateMaster(ctx, CreateMasterInput{Name: "Pichu", Status: "inactive"})
		require.NoError(t, err)

		res, err := fx.enf.ListMasters(ctx, MasterQuery{NameContains: "CHU"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Total)

		res, err = fx.enf.ListMasters(ctx, MasterQuery{NameContains: "chu", Status: "active"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Total)

		// 相同的查询重复执行结果一致
		again, err := fx.enf.ListMasters(ctx, MasterQuery{NameContains: "chu", Status: "active"})
		require.NoError(t, err)
		assert.Equal(t, res, again)

		// LIKE 通配符按字面匹配
		res, err = fx.enf.ListMasters(ctx, MasterQuery{NameContains: "%"})
		require.NoError(t, err)
		assert.Zero(t, res.Total)

		_, err = fx.enf.ListMasters(ctx, MasterQuery{Status: "retired"})
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestSweepOrphans(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		p := mustMaster(t, fx.enf, "Pikachu")
		mustAbility(t, fx.enf, p.ID, "Thunderbolt")

		// 绕过执行器直接写入悬空引用，模拟级联删除中途失败
		for i, mid := range []int64{7, 7, 8} {
			orphan := ability.Ability{ID: int64(100 + i), MasterID: mid, Ability: "Ghost", Type: "ghost", Status: master.StatusActive}
			require.NoError(t, fx.abilities.Insert(ctx, &orphan))
		}

		n, err := fx.enf.SweepOrphans(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		res, err := fx.enf.ListAbilities(ctx, AbilityQuery{})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, p.ID, res.Items[0].MasterID)

		n, err = fx.enf.SweepOrphans(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}


func TestUpdateMasterAfterConcurrentDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		p := mustMaster(t, fx.enf, "Pikachu")

		hooked := &hookedCollection[master.Master]{Collection: fx.masters, when: byID(p.ID)}
		racing := New(hooked, fx.abilities, fx.seq)
		hooked.then = func() {
			_, err := fx.enf.DeleteMaster(ctx, p.ID)
			require.NoError(t, err)
		}

		name := "Raichu"
		_, err := racing.UpdateMaster(ctx, p.ID, UpdateMasterInput{Name: &name})
		assert.True(t, apperr.IsNotFound(err), "got %v", err)
		require.True(t, hooked.fired)

		// 被删除的 Master 不能被更新重新创建
		_, err = fx.enf.GetMaster(ctx, p.ID)
		assert.True(t, apperr.IsNotFound(err), "got %v", err)
	})
}

func TestUpdateAbilityAfterCascadeDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		p := mustMaster(t, fx.enf, "Pikachu")
		a := mustAbility(t, fx.enf, p.ID, "Thunderbolt")

		hooked := &hookedCollection[ability.Ability]{Collection: fx.abilities, when: byID(a.ID)}
		racing := New(fx.masters, hooked, fx.seq)
		hooked.then = func() {
			n, err := fx.enf.DeleteMaster(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
		}

		damage := 120
		_, err := racing.UpdateAbility(ctx, a.ID, UpdateAbilityInput{Damage: &damage})
		assert.True(t, apperr.IsNotFound(err), "got %v", err)
		require.True(t, hooked.fired)

		res, err := fx.enf.ListAbilities(ctx, AbilityQuery{MasterID: &p.ID})
		require.NoError(t, err)
		assert.Zero(t, res.Total)
		_, err = fx.enf.GetAbility(ctx, a.ID)
		assert.True(t, apperr.IsNotFound(err), "got %v", err)
	})
}

func TestSweepOrphansSparesRecreatedMaster(t *testing.T) {
	forEachBackend(t, func(t *testing.T, fx fixture) {
		ctx := context.Background()
		orphan := ability.Ability{ID: 100, MasterID: 7, Ability: "Ghost", Type: "ghost", Status: master.StatusActive}
		require.NoError(t, fx.abilities.Insert(ctx, &orphan))

		// 扫描把 7 判定为孤儿之后、删除之前，以显式ID重新创建 Master 7
		hooked := &hookedCollection[master.Master]{Collection: fx.masters, when: byID(7)}
		sweeper := New(hooked, fx.abilities, fx.seq)
		hooked.then = func() {
			id := int64(7)
			_, err := fx.enf.CreateMaster(ctx, CreateMasterInput{ID: &id, Name: "Gengar"})
			require.NoError(t, err)
		}

		n, err := sweeper.SweepOrphans(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		require.True(t, hooked.fired)

		got, err := fx.enf.GetAbility(ctx, orphan.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.MasterID)
	})
}
