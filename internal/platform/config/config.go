package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// 支持的数据库驱动与序列号后端
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SequenceBackendDatabase = "database"
	SequenceBackendRedis    = "redis"
)

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Sequence    SequenceConfig    `mapstructure:"sequence"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode           string     `mapstructure:"mode"`
	Address        string     `mapstructure:"address"`
	MaxUploadBytes int64      `mapstructure:"maxUploadBytes"`
	Cors           CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了持久化存储的配置
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
}

// RedisConfig 定义了Redis的配置，Redis是可选组件
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SequenceConfig 决定ID分配器使用哪个存储引擎的原子自增
type SequenceConfig struct {
	Backend string `mapstructure:"backend"`
}

// MaintenanceConfig 定义了后台维护任务的配置
type MaintenanceConfig struct {
	// OrphanSweepInterval 为 0 时不启动孤儿能力清理任务
	OrphanSweepInterval time.Duration `mapstructure:"orphanSweepInterval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":4000")
	v.SetDefault("server.maxUploadBytes", 5<<20)
	v.SetDefault("server.cors.allowedOrigins", []string{"*"})
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "pokedex.db")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "127.0.0.1:6379")
	v.SetDefault("sequence.backend", SequenceBackendDatabase)
	v.SetDefault("maintenance.orphanSweepInterval", "0s")
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件；找不到文件时使用默认值
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 2. 添加配置文件搜索路径，Viper会按顺序查找
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 3. 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:8888
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// 4. 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
		fmt.Println("未找到 config.yaml，使用默认配置。")
	}

	// 5. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置: %w", err)
	}
	cfg.applyDriverDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 6. 将加载的配置赋值给全局变量
	Cfg = &cfg

	return Cfg, nil
}

// applyDriverDefaults 补全依赖数据库驱动的默认值。
// SQLite 只允许一个写连接，默认限制为 1；其他驱动未配置时不限制连接数
func (c *Config) applyDriverDefaults() {
	if c.Database.MaxOpenConns == 0 && c.Database.Driver == DriverSQLite {
		c.Database.MaxOpenConns = 1
	}
}

// Validate 检查配置项之间的组合是否合法
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("未知的数据库驱动: %q", c.Database.Driver)
	}
	switch c.Sequence.Backend {
	case SequenceBackendDatabase:
	case SequenceBackendRedis:
		if !c.Redis.Enabled {
			return errors.New("sequence.backend 为 redis 时必须启用 redis")
		}
	default:
		return fmt.Errorf("未知的序列号后端: %q", c.Sequence.Backend)
	}
	if c.Database.MaxOpenConns < 0 {
		return errors.New("database.maxOpenConns 不能为负数")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.maxUploadBytes 必须为正数")
	}
	if c.Maintenance.OrphanSweepInterval < 0 {
		return errors.New("maintenance.orphanSweepInterval 不能为负数")
	}
	return nil
}
