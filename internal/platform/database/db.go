package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// OpenDB 根据配置打开数据库连接，不修改全局变量
func OpenDB(cfg config.DatabaseConfig, mode string) (*gorm.DB, error) {
	// GORM日志配置，release 模式下只记录错误
	level := logger.Warn
	if mode == "release" {
		level = logger.Error
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  mode != "release",
		},
	)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("未知的数据库驱动: %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
		// 让唯一约束冲突统一表现为 gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("无法获取底层连接池: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return db, nil
}

// InitDB 初始化全局数据库连接
func InitDB(cfg config.DatabaseConfig, mode string) *gorm.DB {
	db, err := OpenDB(cfg, mode)
	if err != nil {
		fmt.Println("连接数据库失败", err)
		panic(err)
	}
	DB = db

	fmt.Printf("数据库连接成功！(driver=%s)\n", cfg.Driver)
	return DB
}

// CloseDB 关闭全局数据库连接池
func CloseDB() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	fmt.Println("正在关闭数据库连接...")
	return sqlDB.Close()
}
