package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"db"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Log         LogConfig         `mapstructure:"log"`
	Supervision SupervisionConfig `mapstructure:"supervision"`
	Console     ConsoleConfig     `mapstructure:"console"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	LoginRateLimit int           `mapstructure:"login_rate_limit"` // 每分钟每 IP 登录尝试上限
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// OutputPaths 为空时输出到 stderr；控制台程序需写文件，避免与 TUI 抢占终端
	OutputPaths []string `mapstructure:"output_paths"`
}

// PeriodWindow 单个教时的时间窗口（HH:MM）
type PeriodWindow struct {
	Period int    `mapstructure:"period"`
	Start  string `mapstructure:"start"`
	End    string `mapstructure:"end"`
}

// SupervisionConfig 自习室监督相关配置
type SupervisionConfig struct {
	Timezone              string         `mapstructure:"timezone"`
	Periods               []PeriodWindow `mapstructure:"periods"`
	HighSchoolTypes       []string       `mapstructure:"high_school_types"`
	SchoolCutoffHour      int            `mapstructure:"school_cutoff_hour"`
	LateConversionEnabled bool           `mapstructure:"late_conversion_enabled"`
	PatrolStartLockTTL    time.Duration  `mapstructure:"patrol_start_lock_ttl"`
}

// Location 解析监督时区，失败时回退到 UTC
func (c *SupervisionConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ConsoleConfig 值班控制台（cmd/console）配置
type ConsoleConfig struct {
	APIBaseURL      string        `mapstructure:"api_base_url"`
	LoginID         string        `mapstructure:"login_id"`
	Password        string        `mapstructure:"password"`
	MarkerPath      string        `mapstructure:"marker_path"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	BeaconGrace     time.Duration `mapstructure:"beacon_grace"`
	DefaultChecker  string        `mapstructure:"default_checker"`
	LogFile         string        `mapstructure:"log_file"`
}

// DefaultPeriods 教时表（与前台铃声计划保持一致）
var DefaultPeriods = []PeriodWindow{
	{Period: 1, Start: "08:00", End: "10:00"},
	{Period: 2, Start: "10:20", End: "12:00"},
	{Period: 3, Start: "13:00", End: "15:00"},
	{Period: 4, Start: "15:20", End: "16:40"},
	{Period: 5, Start: "16:50", End: "18:00"},
	{Period: 6, Start: "19:00", End: "20:20"},
	{Period: 7, Start: "20:30", End: "22:00"},
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "ditton")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Seoul")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "12h")
	v.SetDefault("auth.login_rate_limit", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("supervision.timezone", "Asia/Seoul")
	v.SetDefault("supervision.periods", periodDefaults())
	v.SetDefault("supervision.high_school_types", []string{"예비고1", "고1", "고2", "고3"})
	v.SetDefault("supervision.school_cutoff_hour", 18)
	v.SetDefault("supervision.late_conversion_enabled", true)
	v.SetDefault("supervision.patrol_start_lock_ttl", "5s")

	v.SetDefault("console.api_base_url", "http://localhost:8080/api/v1")
	v.SetDefault("console.marker_path", ".ditton/patrol_force_ended.yaml")
	v.SetDefault("console.refresh_interval", "60s")
	v.SetDefault("console.request_timeout", "10s")
	v.SetDefault("console.beacon_grace", "2s")
	v.SetDefault("console.default_checker", "감독자")
	v.SetDefault("console.log_file", ".ditton/console.log")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("DITTON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	return &cfg, nil
}

// Validate 校验服务端关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	return c.Supervision.Validate()
}

// ValidateConsole 校验控制台关键配置项
func (c *Config) ValidateConsole() error {
	if c.Console.APIBaseURL == "" {
		return fmt.Errorf("配置校验失败: console.api_base_url 不能为空")
	}
	if c.Console.MarkerPath == "" {
		return fmt.Errorf("配置校验失败: console.marker_path 不能为空")
	}
	if c.Console.RefreshInterval <= 0 {
		return fmt.Errorf("配置校验失败: console.refresh_interval 必须大于 0")
	}
	return c.Supervision.Validate()
}

// Validate 校验教时表：教时编号 1..7 且不重复，起止时间格式合法
func (c *SupervisionConfig) Validate() error {
	if len(c.Periods) == 0 {
		return fmt.Errorf("配置校验失败: supervision.periods 不能为空")
	}
	seen := make(map[int]bool, len(c.Periods))
	for _, p := range c.Periods {
		if p.Period < 1 || p.Period > 7 {
			return fmt.Errorf("配置校验失败: 教时编号 %d 超出 1-7", p.Period)
		}
		if seen[p.Period] {
			return fmt.Errorf("配置校验失败: 教时 %d 重复", p.Period)
		}
		seen[p.Period] = true
		start, err := time.Parse("15:04", p.Start)
		if err != nil {
			return fmt.Errorf("配置校验失败: 教时 %d 开始时间 %q 无效", p.Period, p.Start)
		}
		end, err := time.Parse("15:04", p.End)
		if err != nil {
			return fmt.Errorf("配置校验失败: 教时 %d 结束时间 %q 无效", p.Period, p.End)
		}
		if !end.After(start) {
			return fmt.Errorf("配置校验失败: 教时 %d 结束时间须晚于开始时间", p.Period)
		}
	}
	if c.SchoolCutoffHour < 0 || c.SchoolCutoffHour > 24 {
		return fmt.Errorf("配置校验失败: supervision.school_cutoff_hour 必须在 0-24 之间")
	}
	return nil
}

func periodDefaults() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(DefaultPeriods))
	for _, p := range DefaultPeriods {
		out = append(out, map[string]interface{}{
			"period": p.Period,
			"start":  p.Start,
			"end":    p.End,
		})
	}
	return out
}
