package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空表示只输出到标准输出
}

// DatabaseConfig 定义数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// RedisConfig 定义 Redis 计数器存储配置
type RedisConfig struct {
	Address  string // Redis 服务地址，格式 "host:port"，留空使用内存计数器
	Password string // Redis 认证密码，留空表示无密码
	DB       int    // Redis 数据库编号，默认 0
}

// JWTConfig 定义 JWT 认证相关配置
type JWTConfig struct {
	Secret          string        // JWT 签名密钥，必须至少 32 字符
	Issuer          string        // JWT 签发者标识
	Audience        string        // JWT 受众标识
	AccessExpiry    time.Duration // 访问令牌有效期，默认 24 小时
	CookieName      string        // 携带令牌的 Cookie 名称，默认 "auth_token"
	AllowCookieAuth bool          // 是否允许从 Cookie 读取令牌
	ForceCookieAuth bool          // 仅从 Cookie 读取令牌（浏览器客户端模式，忽略 Authorization 头）
}

// APIKeyConfig 定义 API Key 相关配置
type APIKeyConfig struct {
	Header      string        // 携带 API Key 的请求头，默认 "X-API-Key"
	GraceWindow time.Duration // 轮换后旧密钥的宽限期，默认 24 小时
	DefaultTTL  time.Duration // 新密钥的默认有效期，默认 2 年
}

// RateLimitConfig 定义固定窗口限流配置
type RateLimitConfig struct {
	Requests int           // 每个窗口允许的请求数，默认 100
	Window   time.Duration // 窗口长度，默认 1 分钟
	// 未认证路由的全局令牌桶
	IngressRate  float64 // 每秒补充令牌数，默认 50
	IngressBurst int     // 桶容量，默认 100
}

// UsageConfig 定义用量记录的批量写入配置
type UsageConfig struct {
	BatchSize     int           // 达到该数量立即刷盘，默认 100
	FlushInterval time.Duration // 定时刷盘间隔，默认 1 分钟
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server    ServerConfig    // HTTP 服务器配置
	Log       LogConfig       // 日志配置
	Database  DatabaseConfig  // 数据库配置
	Redis     RedisConfig     // Redis 配置
	JWT       JWTConfig       // JWT 认证配置
	APIKey    APIKeyConfig    // API Key 配置
	RateLimit RateLimitConfig // 限流配置
	Usage     UsageConfig     // 用量记录配置
	CORS      CORSConfig      // 跨域配置
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: TODOAPI_
// 例如: TODOAPI_SERVER_PORT, TODOAPI_JWT_SECRET
//
// 返回值:
//   - *Config: 加载成功的配置对象
//   - error: 配置验证失败时返回错误
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("todoapi")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")
	viper.SetDefault("database.type", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("redis.address", "") // 默认为空，使用内存计数器
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("jwt.issuer", "todoapi")
	viper.SetDefault("jwt.audience", "todoapi-clients")
	viper.SetDefault("jwt.access_expiry", "24h")
	viper.SetDefault("jwt.cookie_name", "auth_token")
	viper.SetDefault("jwt.allow_cookie_auth", false)
	viper.SetDefault("jwt.force_cookie_auth", false)
	viper.SetDefault("apikey.header", "X-API-Key")
	viper.SetDefault("apikey.grace_window", "24h")
	viper.SetDefault("apikey.default_ttl", "17520h") // 2 年
	viper.SetDefault("ratelimit.requests", 100)
	viper.SetDefault("ratelimit.window", "1m")
	viper.SetDefault("ratelimit.ingress_rate", 50.0)
	viper.SetDefault("ratelimit.ingress_burst", 100)
	viper.SetDefault("usage.batch_size", 100)
	viper.SetDefault("usage.flush_interval", "1m")
	viper.SetDefault("cors.allowed_origins", "*")

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
		},
		Database: DatabaseConfig{
			Type:            viper.GetString("database.type"),
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: viper.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:          viper.GetString("jwt.secret"),
			Issuer:          viper.GetString("jwt.issuer"),
			Audience:        viper.GetString("jwt.audience"),
			AccessExpiry:    viper.GetDuration("jwt.access_expiry"),
			CookieName:      viper.GetString("jwt.cookie_name"),
			AllowCookieAuth: viper.GetBool("jwt.allow_cookie_auth"),
			ForceCookieAuth: viper.GetBool("jwt.force_cookie_auth"),
		},
		APIKey: APIKeyConfig{
			Header:      viper.GetString("apikey.header"),
			GraceWindow: viper.GetDuration("apikey.grace_window"),
			DefaultTTL:  viper.GetDuration("apikey.default_ttl"),
		},
		RateLimit: RateLimitConfig{
			Requests:     viper.GetInt("ratelimit.requests"),
			Window:       viper.GetDuration("ratelimit.window"),
			IngressRate:  viper.GetFloat64("ratelimit.ingress_rate"),
			IngressBurst: viper.GetInt("ratelimit.ingress_burst"),
		},
		Usage: UsageConfig{
			BatchSize:     viper.GetInt("usage.batch_size"),
			FlushInterval: viper.GetDuration("usage.flush_interval"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitAndTrim(viper.GetString("cors.allowed_origins")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate 验证配置的合法性
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required (set TODOAPI_JWT_SECRET)")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("jwt secret must be at least 32 characters, got %d", len(c.JWT.Secret))
	}
	if c.JWT.AccessExpiry <= 0 {
		return fmt.Errorf("jwt access expiry must be positive")
	}
	if c.JWT.ForceCookieAuth && !c.JWT.AllowCookieAuth {
		return fmt.Errorf("jwt force_cookie_auth requires allow_cookie_auth")
	}
	if c.APIKey.GraceWindow < 0 {
		return fmt.Errorf("apikey grace window must not be negative")
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("rate limit requests must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	if c.Usage.BatchSize <= 0 {
		return fmt.Errorf("usage batch size must be positive")
	}
	if c.Usage.FlushInterval <= 0 {
		return fmt.Errorf("usage flush interval must be positive")
	}
	if c.Database.Type != "" && c.Database.Type != "mysql" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.Type != "" && c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required when database type is set")
	}
	return nil
}

// loadEnvFile 尝试从当前目录或父目录加载 .env 文件
func loadEnvFile() {
	candidates := []string{".env"}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(wd), ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// splitAndTrim 将逗号分隔的字符串拆分为去除空白的切片
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
