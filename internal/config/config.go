package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Auth     AuthConfig     `yaml:"auth"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	EntryFee       int64 `yaml:"entry_fee"`       // 入场费
	MaxPlayers     int   `yaml:"max_players"`     // 单局人数上限
	MinPlayers     int   `yaml:"min_players"`     // 开局最少人数
	LobbyCountdown int   `yaml:"lobby_countdown"` // 选卡倒计时（秒）
	CallInterval   int   `yaml:"call_interval"`   // 叫号间隔（秒）
	ResetDelay     int   `yaml:"reset_delay"`     // 结算展示延迟（秒）
}

// AuthConfig 认证配置
type AuthConfig struct {
	SessionTTLHours int    `yaml:"session_ttl_hours"` // 会话有效期（小时）
	StartingBalance int64  `yaml:"starting_balance"`  // 注册赠送余额
	AdminUsername   string `yaml:"admin_username"`
	AdminPassword   string `yaml:"admin_password"`
}

// SecurityConfig 连接安全配置
type SecurityConfig struct {
	AllowedOrigins     []string `yaml:"allowed_origins"`      // "*" 表示允许所有来源
	MaxConnPerSecond   int      `yaml:"max_conn_per_second"`  // 单 IP 每秒连接上限
	MaxConnPerMinute   int      `yaml:"max_conn_per_minute"`  // 单 IP 每分钟连接上限
	BanDurationMinutes int      `yaml:"ban_duration_minutes"` // 超限封禁时长（分钟）
}

// BanDuration 返回封禁时长
func (c *SecurityConfig) BanDuration() time.Duration {
	return time.Duration(c.BanDurationMinutes) * time.Minute
}

// CallIntervalDuration 返回叫号间隔时长
func (c *GameConfig) CallIntervalDuration() time.Duration {
	return time.Duration(c.CallInterval) * time.Second
}

// ResetDelayDuration 返回结算展示延迟时长
func (c *GameConfig) ResetDelayDuration() time.Duration {
	return time.Duration(c.ResetDelay) * time.Second
}

// SessionTTL 返回会话有效期
func (c *AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           3000,
			MaxConnections: 1000,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		Game: GameConfig{
			EntryFee:       10,
			MaxPlayers:     50,
			MinPlayers:     1,
			LobbyCountdown: 20,
			CallInterval:   3,
			ResetDelay:     5,
		},
		Auth: AuthConfig{
			SessionTTLHours: 24,
			StartingBalance: 500,
			AdminUsername:   "admin",
			AdminPassword:   "",
		},
		Security: SecurityConfig{
			AllowedOrigins:     []string{"*"},
			MaxConnPerSecond:   10,
			MaxConnPerMinute:   60,
			BanDurationMinutes: 5,
		},
	}
}

// Load 从文件加载配置，缺失的字段用默认值补齐
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
