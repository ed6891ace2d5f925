package integrity

import (
	"context"
	"fmt"

	"github.com/SlpAus/aureates-pokedex-backend/internal/listing"
	"github.com/SlpAus/aureates-pokedex-backend/internal/master"
	"github.com/SlpAus/aureates-pokedex-backend/internal/media"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
	"github.com/SlpAus/aureates-pokedex-backend/internal/sequence"
	"github.com/SlpAus/aureates-pokedex-backend/internal/store"
)

// CreateMasterInput 是创建 Master 的参数；ID 为 nil 时由分配器生成
type CreateMasterInput struct {
	ID     *int64
	Name   string
	Status string
	Image  *media.Image
}

// UpdateMasterInput 中为 nil 的字段保持不变
type UpdateMasterInput struct {
	Name   *string
	Status *string
	Image  *media.Image
}

// MasterQuery 是 Master 列表的查询条件
type MasterQuery struct {
	listing.Request
	NameContains string
	Status       string
}

func nameTaken(name string) error {
	return apperr.Conflict("Master with name %q already exists", name)
}

// ensureNameFree 不区分大小写地检查名称是否已被其他 Master 使用
func (e *Enforcer) ensureNameFree(ctx context.Context, name string, exclude *int64) error {
	f := store.Filter{NameKey: master.FoldName(name), ExcludeID: exclude}
	_, err := e.masters.FindOne(ctx, f)
	switch {
	case err == nil:
		return nameTaken(name)
	case isNotFound(err):
		return nil
	default:
		return storageErr("check master name", err)
	}
}

func (e *Enforcer) CreateMaster(ctx context.Context, in CreateMasterInput) (master.View, error) {
	// 1. 校验名称与状态
	name, err := master.NormalizeName(in.Name)
	if err != nil {
		return master.View{}, err
	}
	status, err := master.ParseStatus(in.Status)
	if err != nil {
		return master.View{}, err
	}
	if err := checkExplicitID(in.ID); err != nil {
		return master.View{}, err
	}

	// 2. 名称唯一性检查在分配ID之前，冲突时不消耗序列号
	if err := e.ensureNameFree(ctx, name, nil); err != nil {
		return master.View{}, err
	}

	rec := master.Master{Status: status}
	rec.SetName(name)
	if err := media.Attach(&rec, in.Image); err != nil {
		return master.View{}, err
	}

	// 3. 获取ID
	if in.ID != nil {
		rec.ID = *in.ID
	} else {
		id, err := e.seq.Next(ctx, sequence.KindMaster)
		if err != nil {
			return master.View{}, storageErr("allocate master id", err)
		}
		rec.ID = id
	}
	rec.CreatedAt = e.now()
	rec.UpdatedAt = rec.CreatedAt

	// 4. 持久化；并发创建同名记录时由唯一索引兜底
	if err := e.masters.Insert(ctx, &rec); err != nil {
		if isDuplicate(err) {
			return master.View{}, e.classifyMasterDuplicate(ctx, rec)
		}
		return master.View{}, storageErr("insert master", err)
	}
	return rec.Project(), nil
}

// classifyMasterDuplicate 判断插入冲突来自名称还是ID
func (e *Enforcer) classifyMasterDuplicate(ctx context.Context, rec master.Master) error {
	if _, err := e.masters.FindOne(ctx, store.ByID(rec.ID)); err == nil {
		return apperr.Conflict("Master with id %d already exists", rec.ID)
	}
	return nameTaken(rec.Name)
}

func (e *Enforcer) findMaster(ctx context.Context, id int64) (*master.Master, error) {
	rec, err := e.masters.FindOne(ctx, store.ByID(id))
	if isNotFound(err) {
		return nil, apperr.NotFound("Master not found")
	}
	if err != nil {
		return nil, storageErr("find master", err)
	}
	return rec, nil
}

func (e *Enforcer) GetMaster(ctx context.Context, id int64) (master.View, error) {
	rec, err := e.findMaster(ctx, id)
	if err != nil {
		return master.View{}, err
	}
	return rec.Project(), nil
}

// GetMasterImage 返回原始图片字节与其 MIME 类型
func (e *Enforcer) GetMasterImage(ctx context.Context, id int64) (media.Image, error) {
	return e.images.Get(ctx, id)
}

func (e *Enforcer) ListMasters(ctx context.Context, q MasterQuery) (listing.Result[master.View], error) {
	status, err := master.ParseStatusFilter(q.Status)
	if err != nil {
		return listing.Result[master.View]{}, err
	}
	f := store.Filter{Status: status}
	if q.NameContains != "" {
		f.NameContains = master.FoldName(q.NameContains)
	}
	res, err := listing.Run(ctx, e.masters, f, q.Request, master.Master.Project)
	if err != nil {
		return res, storageErr("list masters", err)
	}
	return res, nil
}

func (e *Enforcer) UpdateMaster(ctx context.Context, id int64, in UpdateMasterInput) (master.View, error) {
	rec, err := e.findMaster(ctx, id)
	if err != nil {
		return master.View{}, err
	}

	if in.Name != nil {
		name, err := master.NormalizeName(*in.Name)
		if err != nil {
			return master.View{}, err
		}
		if err := e.ensureNameFree(ctx, name, &id); err != nil {
			return master.View{}, err
		}
		rec.SetName(name)
	}
	if in.Status != nil {
		status, err := master.ParseStatus(*in.Status)
		if err != nil {
			return master.View{}, err
		}
		rec.Status = status
	}
	// 图片与其他字段在同一次写入中整体替换
	if err := media.Attach(rec, in.Image); err != nil {
		return master.View{}, err
	}
	rec.UpdatedAt = e.now()

	// 读取之后记录可能已被并发删除，此时不能重新创建它
	n, err := e.masters.Update(ctx, rec)
	if err != nil {
		if isDuplicate(err) {
			return master.View{}, nameTaken(rec.Name)
		}
		return master.View{}, storageErr("update master", err)
	}
	if n == 0 {
		return master.View{}, apperr.NotFound("Master not found")
	}
	return rec.Project(), nil
}

// DeleteMaster 先删除 Master，再删除所有引用它的 Ability，返回级联删除的条数。
// 两步不在同一事务中；第二步失败时可能留下孤儿 Ability，见 SweepOrphans。
func (e *Enforcer) DeleteMaster(ctx context.Context, id int64) (int64, error) {
	n, err := e.masters.Delete(ctx, store.ByID(id))
	if err != nil {
		return 0, storageErr("delete master", err)
	}
	if n == 0 {
		return 0, apperr.NotFound("Master not found")
	}

	cascaded, err := e.abilities.Delete(ctx, store.ByMasterID(id))
	if err != nil {
		return 0, storageErr(fmt.Sprintf("master %d deleted but cascade delete of abilities failed", id), err)
	}
	return cascaded, nil
}
