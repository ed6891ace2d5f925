package ability

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SlpAus/aureates-pokedex-backend/internal/master"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
)

// 字段约束
const (
	NameMaxLen = 50
	TypeMaxLen = 20
	DamageMin  = 0
	DamageMax  = 999
)

// Ability 定义了依附于某个 Master 的能力记录
type Ability struct {
	ID int64 `gorm:"primaryKey;autoIncrement:false" json:"id"`

	// MasterID 在写入时必须指向一个存在的 Master
	MasterID int64 `gorm:"not null;index" json:"masterId"`

	Ability string        `gorm:"size:50;not null" json:"ability"`
	Type    string        `gorm:"size:20;not null" json:"type"`
	Damage  int           `gorm:"not null" json:"damage"`
	Status  master.Status `gorm:"size:16;not null;default:active;index" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Ability) TableName() string { return "abilities" }

func normalizeText(field, raw string, max int) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", apperr.Validation("%s is required", field)
	}
	if utf8.RuneCountInString(v) > max {
		return "", apperr.Validation("%s must be at most %d characters", field, max)
	}
	return v, nil
}

// NormalizeName 校验能力名称
func NormalizeName(raw string) (string, error) {
	return normalizeText("ability", raw, NameMaxLen)
}

// NormalizeType 校验能力类型
func NormalizeType(raw string) (string, error) {
	return normalizeText("type", raw, TypeMaxLen)
}

// ValidateDamage 检查伤害值范围
func ValidateDamage(damage int) error {
	if damage < DamageMin || damage > DamageMax {
		return apperr.Validation("damage must be between %d and %d", DamageMin, DamageMax)
	}
	return nil
}
