package startup

import (
	"fmt"

	"github.com/SlpAus/aureates-pokedex-backend/internal/ability"
	"github.com/SlpAus/aureates-pokedex-backend/internal/integrity"
	"github.com/SlpAus/aureates-pokedex-backend/internal/master"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/config"
	"github.com/SlpAus/aureates-pokedex-backend/internal/sequence"
	"github.com/SlpAus/aureates-pokedex-backend/internal/store/gormstore"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// MigrateDB 迁移业务核心用到的全部表
func MigrateDB(db *gorm.DB) error {
	if err := master.MigrateDB(db); err != nil {
		return err
	}
	if err := ability.MigrateDB(db); err != nil {
		return err
	}
	return sequence.MigrateDB(db)
}

// NewAllocator 根据配置选择序列号后端
func NewAllocator(cfg config.SequenceConfig, db *gorm.DB, rdb redis.Cmdable) (sequence.Allocator, error) {
	switch cfg.Backend {
	case config.SequenceBackendDatabase:
		return sequence.NewDBAllocator(db), nil
	case config.SequenceBackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("序列号后端为redis，但Redis客户端未初始化")
		}
		return sequence.NewRedisAllocator(rdb), nil
	default:
		return nil, fmt.Errorf("未知的序列号后端: %q", cfg.Backend)
	}
}

// InitializeApplication 是应用首次启动时执行的总入口：迁移表结构并装配完整性执行器
func InitializeApplication(cfg *config.Config, db *gorm.DB, rdb redis.Cmdable) (*integrity.Enforcer, error) {
	fmt.Println("开始应用初始化...")

	if err := MigrateDB(db); err != nil {
		return nil, err
	}

	alloc, err := NewAllocator(cfg.Sequence, db, rdb)
	if err != nil {
		return nil, err
	}

	enforcer := integrity.New(
		gormstore.New[master.Master](db),
		gormstore.New[ability.Ability](db),
		alloc,
	)

	fmt.Printf("应用初始化完成！(sequence=%s)\n", cfg.Sequence.Backend)
	return enforcer, nil
}
