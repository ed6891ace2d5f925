package integrity

import (
	"context"

	"github.com/SlpAus/aureates-pokedex-backend/internal/ability"
	"github.com/SlpAus/aureates-pokedex-backend/internal/listing"
	"github.com/SlpAus/aureates-pokedex-backend/internal/master"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
	"github.com/SlpAus/aureates-pokedex-backend/internal/sequence"
	"github.com/SlpAus/aureates-pokedex-backend/internal/store"
)

// CreateAbilityInput 是创建 Ability 的参数；ID 为 nil 时由分配器生成
type CreateAbilityInput struct {
	ID       *int64
	MasterID int64
	Ability  string
	Type     string
	Damage   int
	Status   string
}

// UpdateAbilityInput 中为 nil 的字段保持不变
type UpdateAbilityInput struct {
	MasterID *int64
	Ability  *string
	Type     *string
	Damage   *int
	Status   *string
}

// AbilityQuery 是 Ability 列表的查询条件
type AbilityQuery struct {
	listing.Request
	MasterID *int64
	Status   string
}

// ensureMasterExists 解析外键；找不到时是 Validation 而不是 NotFound
func (e *Enforcer) ensureMasterExists(ctx context.Context, masterID int64) error {
	_, err := e.masters.FindOne(ctx, store.ByID(masterID))
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return apperr.Validation("Invalid masterId")
	default:
		return storageErr("resolve masterId", err)
	}
}

func (e *Enforcer) CreateAbility(ctx context.Context, in CreateAbilityInput) (ability.Ability, error) {
	name, err := ability.NormalizeName(in.Ability)
	if err != nil {
		return ability.Ability{}, err
	}
	typ, err := ability.NormalizeType(in.Type)
	if err != nil {
		return ability.Ability{}, err
	}
	if err := ability.ValidateDamage(in.Damage); err != nil {
		return ability.Ability{}, err
	}
	status, err := master.ParseStatus(in.Status)
	if err != nil {
		return ability.Ability{}, err
	}
	if err := checkExplicitID(in.ID); err != nil {
		return ability.Ability{}, err
	}

	// 外键在任何写入之前解析
	if err := e.ensureMasterExists(ctx, in.MasterID); err != nil {
		return ability.Ability{}, err
	}

	rec := ability.Ability{
		MasterID: in.MasterID,
		Ability:  name,
		Type:     typ,
		Damage:   in.Damage,
		Status:   status,
	}
	if in.ID != nil {
		rec.ID = *in.ID
	} else {
		id, err := e.seq.Next(ctx, sequence.KindAbility)
		if err != nil {
			return ability.Ability{}, storageErr("allocate ability id", err)
		}
		rec.ID = id
	}
	rec.CreatedAt = e.now()
	rec.UpdatedAt = rec.CreatedAt

	if err := e.abilities.Insert(ctx, &rec); err != nil {
		if isDuplicate(err) {
			return ability.Ability{}, apperr.Conflict("Ability with id %d already exists", rec.ID)
		}
		return ability.Ability{}, storageErr("insert ability", err)
	}
	return rec, nil
}

func (e *Enforcer) GetAbility(ctx context.Context, id int64) (ability.Ability, error) {
	rec, err := e.abilities.FindOne(ctx, store.ByID(id))
	if isNotFound(err) {
		return ability.Ability{}, apperr.NotFound("Ability not found")
	}
	if err != nil {
		return ability.Ability{}, storageErr("find ability", err)
	}
	return *rec, nil
}

func (e *Enforcer) ListAbilities(ctx context.Context, q AbilityQuery) (listing.Result[ability.Ability], error) {
	status, err := master.ParseStatusFilter(q.Status)
	if err != nil {
		return listing.Result[ability.Ability]{}, err
	}
	f := store.Filter{MasterID: q.MasterID, Status: status}
	res, err := listing.Run(ctx, e.abilities, f, q.Request, func(a ability.Ability) ability.Ability { return a })
	if err != nil {
		return res, storageErr("list abilities", err)
	}
	return res, nil
}

func (e *Enforcer) UpdateAbility(ctx context.Context, id int64, in UpdateAbilityInput) (ability.Ability, error) {
	rec, err := e.GetAbility(ctx, id)
	if err != nil {
		return ability.Ability{}, err
	}

	if in.Ability != nil {
		if rec.Ability, err = ability.NormalizeName(*in.Ability); err != nil {
			return ability.Ability{}, err
		}
	}
	if in.Type != nil {
		if rec.Type, err = ability.NormalizeType(*in.Type); err != nil {
			return ability.Ability{}, err
		}
	}
	if in.Damage != nil {
		if err := ability.ValidateDamage(*in.Damage); err != nil {
			return ability.Ability{}, err
		}
		rec.Damage = *in.Damage
	}
	if in.Status != nil {
		if rec.Status, err = master.ParseStatus(*in.Status); err != nil {
			return ability.Ability{}, err
		}
	}
	if in.MasterID != nil {
		if err := e.ensureMasterExists(ctx, *in.MasterID); err != nil {
			return ability.Ability{}, err
		}
		rec.MasterID = *in.MasterID
	}
	rec.UpdatedAt = e.now()

	// 级联删除可能发生在读取之后，0 行受影响说明记录已不存在
	n, err := e.abilities.Update(ctx, &rec)
	if err != nil {
		return ability.Ability{}, storageErr("update ability", err)
	}
	if n == 0 {
		return ability.Ability{}, apperr.NotFound("Ability not found")
	}
	return rec, nil
}

func (e *Enforcer) DeleteAbility(ctx context.Context, id int64) error {
	n, err := e.abilities.Delete(ctx, store.ByID(id))
	if err != nil {
		return storageErr("delete ability", err)
	}
	if n == 0 {
		return apperr.NotFound("Ability not found")
	}
	return nil
}
