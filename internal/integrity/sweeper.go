package integrity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/aureates-pokedex-backend/internal/store"
	"github.com/SlpAus/aureates-pokedex-backend/pkg/lifecycle"
)

const sweepBatch = 100

// SweepOrphans 删除所有 masterId 已无法解析的 Ability，返回删除条数。
// 它是独立的维护任务，DeleteMaster 本身不调用它。
func (e *Enforcer) SweepOrphans(ctx context.Context) (int64, error) {
	// 1. 先完整扫描一遍，收集孤儿 masterId，扫描期间不做删除以免分页错位
	known := make(map[int64]bool)
	var orphans []int64
	for offset := 0; ; offset += sweepBatch {
		rows, err := e.abilities.Find(ctx, store.Filter{}, store.Page{Offset: offset, Limit: sweepBatch})
		if err != nil {
			return 0, storageErr("scan abilities", err)
		}
		for _, a := range rows {
			if _, seen := known[a.MasterID]; seen {
				continue
			}
			_, err := e.masters.FindOne(ctx, store.ByID(a.MasterID))
			switch {
			case err == nil:
				known[a.MasterID] = true
			case isNotFound(err):
				known[a.MasterID] = false
				orphans = append(orphans, a.MasterID)
			default:
				return 0, storageErr("resolve masterId", err)
			}
		}
		if len(rows) < sweepBatch {
			break
		}
	}

	// 2. 按 masterId 批量删除；删除前重新解析一次，跳过期间以相同ID重建的 Master
	var total int64
	for _, mid := range orphans {
		_, err := e.masters.FindOne(ctx, store.ByID(mid))
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return total, storageErr("resolve masterId", err)
		}
		n, err := e.abilities.Delete(ctx, store.ByMasterID(mid))
		if err != nil {
			return total, storageErr("delete orphan abilities", err)
		}
		total += n
	}
	return total, nil
}

// StartOrphanSweeper 定期执行 SweepOrphans。
// gracefulHandle 停机后不再开始新一轮清理；正在进行的一轮只会被 forcefulHandle 中断。
func (e *Enforcer) StartOrphanSweeper(gracefulHandle, forcefulHandle *lifecycle.Handle, interval time.Duration) {
	defer gracefulHandle.Close()
	defer forcefulHandle.Close()
	fmt.Printf("孤儿能力清理任务已启动，间隔 %v。\n", interval)

	for {
		// 可中断的休眠，收到第一停机信号时立刻退出
		if err := gracefulHandle.Sleep(interval); err != nil {
			fmt.Println("孤儿清理任务: 休眠被中断，正在关闭...")
			return
		}

		n, err := e.SweepOrphans(forcefulHandle.Ctx())
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("孤儿清理任务: 清理被强制中断。")
				return
			}
			fmt.Printf("孤儿清理任务错误: %v\n", err)
			continue
		}
		if n > 0 {
			fmt.Printf("孤儿清理任务: 删除了 %d 条孤儿能力。\n", n)
		}
	}
}
