package sequence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBAllocator 在 counters 表上用单条 upsert 语句完成自增
type DBAllocator struct {
	db *gorm.DB
}

func NewDBAllocator(db *gorm.DB) *DBAllocator {
	return &DBAllocator{db: db}
}

// MigrateDB 负责自动迁移计数器表结构
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Counter{}); err != nil {
		return fmt.Errorf("无法迁移counter表: %w", err)
	}
	fmt.Println("Counter数据库表迁移成功。")
	return nil
}

// Next 执行 INSERT ... ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1 RETURNING seq。
// 插入与自增在同一条语句里，并发调用由数据库的行锁串行化。
func (a *DBAllocator) Next(ctx context.Context, kind string) (int64, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}

	counter := Counter{Name: kind, Seq: 1}
	err := a.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]any{
				"seq": gorm.Expr("counters.seq + 1"),
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "seq"}}},
	).Create(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("无法为 %s 分配序列号: %w", kind, err)
	}
	return counter.Seq, nil
}

// Current 返回某种实体当前的序列值，计数器不存在时为 0
func (a *DBAllocator) Current(ctx context.Context, kind string) (int64, error) {
	var counter Counter
	err := a.db.WithContext(ctx).Where("name = ?", kind).Limit(1).Find(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("无法读取 %s 的序列号: %w", kind, err)
	}
	return counter.Seq, nil
}
