package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8000
	defaultMaxConnections  = 2000
	defaultRedisAddr       = "localhost:6379"
	defaultDriver          = DriverMemory
	defaultVoteTimeout     = 30
	defaultMaxCycles       = 3
	defaultPromptTimeout   = 3
	defaultRoomTTL         = 60
	defaultCleanupSchedule = "@every 5m"
	defaultMessageRate     = 10
	defaultMessageBurst    = 20
	defaultConnectRate     = 5
	defaultConnectBurst    = 20
	defaultLogLevel        = "info"
	devHostTokenSecret     = "emoguchi-dev-secret"
	envHostTokenSecret     = "EMOGUCHI_HOST_TOKEN_SECRET"
	envDebugToken          = "EMOGUCHI_DEBUG_TOKEN"
	envDatabaseDSN         = "EMOGUCHI_DATABASE_DSN"
	envServerPort          = "EMOGUCHI_PORT"
	envRedisAddr           = "EMOGUCHI_REDIS_ADDR"
	envAllowedOrigins      = "EMOGUCHI_ALLOWED_ORIGINS"
)

// 房间存储驱动
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket / HTTP 服务器配置
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxConnections int      `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig 房间仓库配置
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // memory | redis | postgres
	DSN    string `yaml:"dsn"`
}

// GameConfig 游戏配置
type GameConfig struct {
	DefaultVoteTimeout int    `yaml:"default_vote_timeout"` // 投票时限（秒）
	DefaultMaxCycles   int    `yaml:"default_max_cycles"`
	PromptTimeout      int    `yaml:"prompt_timeout"`       // 台词生成超时（秒）
	EnforceVoteTimeout bool   `yaml:"enforce_vote_timeout"` // 到时自动结算
	RoomTTL            int    `yaml:"room_ttl"`             // 无人房间保留时长（分钟）
	CleanupSchedule    string `yaml:"cleanup_schedule"`     // cron 表达式
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	MessageRate     float64 `yaml:"message_rate"` // 每个连接每秒消息数
	MessageBurst    int     `yaml:"message_burst"`
	ConnectRate     float64 `yaml:"connect_rate"` // 每个 IP 每秒新建连接数
	ConnectBurst    int     `yaml:"connect_burst"`
	HostTokenSecret string  `yaml:"host_token_secret"`
	DebugToken      string  `yaml:"debug_token"` // 为空时关闭调试接口
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
}

// VoteTimeoutDuration 返回投票时限
func (c *GameConfig) VoteTimeoutDuration() time.Duration {
	return time.Duration(c.DefaultVoteTimeout) * time.Second
}

// PromptTimeoutDuration 返回台词生成超时时长
func (c *GameConfig) PromptTimeoutDuration() time.Duration {
	return time.Duration(c.PromptTimeout) * time.Second
}

// RoomTTLDuration 返回无人房间保留时长
func (c *GameConfig) RoomTTLDuration() time.Duration {
	return time.Duration(c.RoomTTL) * time.Minute
}

// Addr 返回监听地址
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	if c.Database.Driver == "" {
		c.Database.Driver = defaultDriver
	}
	if c.Game.DefaultVoteTimeout == 0 {
		c.Game.DefaultVoteTimeout = defaultVoteTimeout
	}
	if c.Game.DefaultMaxCycles == 0 {
		c.Game.DefaultMaxCycles = defaultMaxCycles
	}
	if c.Game.PromptTimeout == 0 {
		c.Game.PromptTimeout = defaultPromptTimeout
	}
	if c.Game.RoomTTL == 0 {
		c.Game.RoomTTL = defaultRoomTTL
	}
	if c.Game.CleanupSchedule == "" {
		c.Game.CleanupSchedule = defaultCleanupSchedule
	}
	if c.Security.MessageRate == 0 {
		c.Security.MessageRate = defaultMessageRate
	}
	if c.Security.MessageBurst == 0 {
		c.Security.MessageBurst = defaultMessageBurst
	}
	if c.Security.ConnectRate == 0 {
		c.Security.ConnectRate = defaultConnectRate
	}
	if c.Security.ConnectBurst == 0 {
		c.Security.ConnectBurst = defaultConnectBurst
	}
	if c.Security.HostTokenSecret == "" {
		c.Security.HostTokenSecret = devHostTokenSecret
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}

// applyEnv 环境变量覆盖（密钥不应写进配置文件）
func (c *Config) applyEnv() {
	if v := os.Getenv(envHostTokenSecret); v != "" {
		c.Security.HostTokenSecret = v
	}
	if v := os.Getenv(envDebugToken); v != "" {
		c.Security.DebugToken = v
	}
	if v := os.Getenv(envDatabaseDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(envServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv(envRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(envAllowedOrigins); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		c.Server.AllowedOrigins = origins
	}
}
