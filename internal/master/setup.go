package master

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateDB 负责自动迁移数据库表结构
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Master{}); err != nil {
		return fmt.Errorf("无法迁移master表: %w", err)
	}
	fmt.Println("Master数据库表迁移成功。")
	return nil
}
