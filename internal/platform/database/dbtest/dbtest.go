// Package dbtest 为测试打开隔离的内存 SQLite 数据库。
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/config"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Open 返回一个只属于当前测试的共享缓存内存库。
// 连接池限制为一个连接，并发调用在连接池处排队，避免 SQLITE_BUSY。
func Open(t testing.TB, migrate ...func(*gorm.DB) error) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := database.OpenDB(config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		DSN:          dsn,
		MaxOpenConns: 1,
	}, "release")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, m := range migrate {
		require.NoError(t, m(db))
	}
	return db
}
