package ability

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateDB 负责自动迁移数据库表结构
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Ability{}); err != nil {
		return fmt.Errorf("无法迁移ability表: %w", err)
	}
	fmt.Println("Ability数据库表迁移成功。")
	return nil
}
