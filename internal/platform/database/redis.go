package database

import (
	"context"
	"fmt"

	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/config"
	"github.com/redis/go-redis/v9"
)

// RDB 是一个全局的Redis客户端实例；未启用Redis时为nil
var RDB *redis.Client

// InitRedis 初始化与Redis数据库的连接
func InitRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		fmt.Println("Redis 未启用，跳过连接。")
		return nil
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用Ping命令来测试连接是否成功
	if err := RDB.Ping(ctx).Err(); err != nil {
		panic("无法连接到Redis: " + err.Error())
	}

	fmt.Println("Redis 连接成功！")
	return RDB
}
