package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Summary  SummaryConfig  `mapstructure:"summary"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // mysql, sqlite
	DSN      string `mapstructure:"dsn"`    // sqlite 文件路径
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Charset  string `mapstructure:"charset"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	ExpireTime int    `mapstructure:"expire_time"` // 小时
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AuthConfig 管理员账号配置（密码以 bcrypt 哈希保存）
type AuthConfig struct {
	AdminUsername     string `mapstructure:"admin_username"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

// SummaryConfig 仓库汇总查询配置
type SummaryConfig struct {
	Source        string        `mapstructure:"source"` // database, upstream
	StaleTime     time.Duration `mapstructure:"stale_time"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	UpstreamURL   string        `mapstructure:"upstream_url"`
	UpstreamToken string        `mapstructure:"upstream_token"`
}

// SeedConfig 初始数据配置
type SeedConfig struct {
	File string `mapstructure:"file"` // YAML 文件路径，为空时不导入
}

// Load 加载配置（环境变量模式）
func Load() *Config {
	v := viper.New()
	setDefaults(v)

	// 先加载 .env 到系统环境变量
	if err := godotenv.Load(); err != nil {
		log.Printf("未找到 .env 文件，使用系统环境变量: %v", err)
	}

	v.AutomaticEnv()
	bindEnv(v)

	cfg, err := unmarshal(v)
	if err != nil {
		log.Fatalf("配置解析失败: %v", err)
	}
	if cfg.Summary.Source == "upstream" && cfg.Summary.UpstreamURL == "" {
		log.Printf("⚠️  汇总来源为 upstream 但未配置 SUMMARY_UPSTREAM_URL，回退为 database")
		cfg.Summary.Source = "database"
	}
	return cfg
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnv 绑定环境变量
func bindEnv(v *viper.Viper) {
	bindings := map[string]string{
		"server.port":         "SERVER_PORT",
		"server.mode":         "SERVER_MODE",
		"server.cors_origins": "SERVER_CORS_ORIGINS",

		"database.driver":   "DB_DRIVER",
		"database.dsn":      "DB_DSN",
		"database.host":     "DB_HOST",
		"database.port":     "DB_PORT",
		"database.username": "DB_USERNAME",
		"database.password": "DB_PASSWORD",
		"database.database": "DB_DATABASE",
		"database.charset":  "DB_CHARSET",

		"jwt.secret":      "JWT_SECRET",
		"jwt.expire_time": "JWT_EXPIRE_TIME",

		"log.level": "LOG_LEVEL",

		"auth.admin_username":      "ADMIN_USERNAME",
		"auth.admin_password_hash": "ADMIN_PASSWORD_HASH",

		"summary.source":         "SUMMARY_SOURCE",
		"summary.stale_time":     "SUMMARY_STALE_TIME",
		"summary.fetch_timeout":  "SUMMARY_FETCH_TIMEOUT",
		"summary.upstream_url":   "SUMMARY_UPSTREAM_URL",
		"summary.upstream_token": "SUMMARY_UPSTREAM_TOKEN",

		"seed.file": "SEED_FILE",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors_origins", []string{"*"})

	// 数据库默认配置
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/registries.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "registries")
	v.SetDefault("database.charset", "utf8mb4")

	// JWT默认配置
	v.SetDefault("jwt.secret", "registry-dashboard-secret")
	v.SetDefault("jwt.expire_time", 24)

	// 日志默认配置
	v.SetDefault("log.level", "info")

	// 管理员默认配置（未配置密码哈希时禁止登录）
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password_hash", "")

	// 汇总查询默认配置
	v.SetDefault("summary.source", "database")
	v.SetDefault("summary.stale_time", 30*time.Second)
	v.SetDefault("summary.fetch_timeout", 10*time.Second)
	v.SetDefault("summary.upstream_url", "")
	v.SetDefault("summary.upstream_token", "")

	v.SetDefault("seed.file", "")
}
