package sequence

// Counter 定义了每种实体一条的序列号记录
type Counter struct {
	// Name 是实体种类，例如 "master"
	Name string `gorm:"primaryKey;size:64"`

	// Seq 是最近一次分配出去的值，从 0 开始
	Seq int64 `gorm:"not null;default:0"`
}

func (Counter) TableName() string { return "counters" }
