package master

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
	"golang.org/x/text/cases"
)

// Status 是主实体与能力共用的启用状态
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// NameMaxLen 是名称去除首尾空白后的最大字符数
const NameMaxLen = 50

// Master 定义了数据库中主实体的数据结构
type Master struct {
	// ID 由序列号分配器或调用方给出，创建后不可变
	ID int64 `gorm:"primaryKey;autoIncrement:false" json:"id"`

	Name string `gorm:"size:50;not null" json:"name"`

	// NameKey 是 Name 的大小写折叠形式，唯一索引保证名称不区分大小写地唯一
	NameKey string `gorm:"size:200;uniqueIndex;not null" json:"-"`

	// Image 与 ImageType 要么同时存在，要么同时为空
	Image     []byte `json:"-"`
	ImageType string `gorm:"size:100" json:"-"`

	Status Status `gorm:"size:16;not null;default:active;index" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Master) TableName() string { return "masters" }

// View 是主实体对外的投影：不含图片字节，只给出派生的 HasImage
type View struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	HasImage  bool      `json:"hasImage"`
	ImageType string    `json:"imageType,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m Master) HasImage() bool {
	return len(m.Image) > 0 && m.ImageType != ""
}

// Project 生成对外投影
func (m Master) Project() View {
	v := View{
		ID:        m.ID,
		Name:      m.Name,
		Status:    m.Status,
		HasImage:  m.HasImage(),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if v.HasImage {
		v.ImageType = m.ImageType
	}
	return v
}

// SetName 同时更新 Name 与 NameKey，name 需已通过 NormalizeName
func (m *Master) SetName(name string) {
	m.Name = name
	m.NameKey = FoldName(name)
}

// FoldName 返回用于不区分大小写比较的名称键
func FoldName(name string) string {
	// cases.Caser 不能跨 goroutine 共享，每次新建
	return cases.Fold().String(strings.TrimSpace(name))
}

// NormalizeName 去除首尾空白并检查长度
func NormalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperr.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > NameMaxLen {
		return "", apperr.Validation("name must be at most %d characters", NameMaxLen)
	}
	return name, nil
}

// ParseStatus 解析状态字符串；空串视为 active
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.TrimSpace(raw)) {
	case "", StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	default:
		return "", apperr.Validation("status must be one of active, inactive")
	}
}

// ParseStatusFilter 解析列表查询中的状态过滤条件；空串表示不过滤
func ParseStatusFilter(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	s, err := ParseStatus(raw)
	return string(s), err
}
