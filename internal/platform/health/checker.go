package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

// 组件状态
const (
	StatusOK   = "ok"
	StatusDown = "down"
)

// Report 是一次健康检查的结果
type Report struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// Healthy 报告所有组件是否可用
func (r Report) Healthy() bool {
	return r.Status == StatusOK
}

// Checker 在每次请求时同步探测数据库与（可选的）Redis
type Checker struct {
	db  *gorm.DB
	rdb redis.Cmdable
}

// NewChecker 创建健康检查器；rdb 为 nil 时不检查Redis
func NewChecker(db *gorm.DB, rdb redis.Cmdable) *Checker {
	return &Checker{db: db, rdb: rdb}
}

func (c *Checker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	report := Report{Status: StatusOK, Components: map[string]string{}}
	mark := func(name string, err error) {
		if err != nil {
			report.Status = StatusDown
			report.Components[name] = StatusDown
			return
		}
		report.Components[name] = StatusOK
	}

	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		mark("database", err)
	}
	if c.rdb != nil {
		mark("redis", c.rdb.Ping(ctx).Err())
	}
	return report
}
