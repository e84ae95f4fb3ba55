package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DefaultConfigYAML 内置默认配置
//
//go:embed default.yaml
var DefaultConfigYAML []byte

// InsecureDefaultSecret 未配置 JWT 密钥时使用的默认值，仅用于本地开发
const InsecureDefaultSecret = "your-secret-key-change-this"

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	AI        AIConfig        `mapstructure:"ai"`
	Email     EmailConfig     `mapstructure:"email"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// TrustedProxies 允许提供 X-Forwarded-For 的代理 IP/CIDR，为空时只认连接地址
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// DatabaseConfig 数据库配置，DSN 非空时优先使用
type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	Charset      string `mapstructure:"charset"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	Issuer      string        `mapstructure:"issuer"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// AIConfig 生成式 AI 网关配置（OpenAI 兼容接口）
type AIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// LogConfig 日志配置，File 为空时只输出到标准输出
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// RateLimitConfig 登录/注册限流配置，LoginAttempts<=0 表示关闭
type RateLimitConfig struct {
	LoginAttempts int           `mapstructure:"login_attempts"`
	Window        time.Duration `mapstructure:"window"`
}

// 无前缀的兼容环境变量名，与 CHATRELAY_ 前缀变量同时生效
var legacyEnv = map[string]string{
	"jwt.secret":   "JWT_SECRET_KEY",
	"database.dsn": "DATABASE_URL",
	"ai.api_key":   "GEMINI_API_KEY",
}

// LoadConfig 加载配置
// 优先级: 环境变量 > .env > 外部配置文件 > 嵌入的默认配置
// configPath: 可选的外部配置文件路径
func LoadConfig(configPath string, log *zap.SugaredLogger) (*Config, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 首先加载嵌入的默认配置
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}

	// 2. 外部配置文件（可选）
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Warnf("cannot read config file %s: %v", configPath, err)
		} else {
			log.Infof("merged config file %s", configPath)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/chatrelay")
		externalViper.AddConfigPath("$HOME/.chatrelay")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				log.Warnf("merge external config: %v", err)
			} else {
				log.Infof("merged config file %s", externalViper.ConfigFileUsed())
			}
		}
	}

	// 3. .env 文件（可选），不覆盖已存在的环境变量
	if err := godotenv.Load(); err == nil {
		log.Info("loaded .env file")
	}

	// 4. 环境变量覆盖
	v.SetEnvPrefix("CHATRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "CHATRELAY_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if cfg.JWT.Secret == InsecureDefaultSecret {
		log.Warn("JWT secret is the insecure default, set JWT_SECRET_KEY")
	}
	if cfg.AI.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set, AI gateway disabled")
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.Port != "" && !strings.HasPrefix(c.Server.Port, ":") {
		c.Server.Port = ":" + c.Server.Port
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = InsecureDefaultSecret
	}
	if c.JWT.ExpireHours <= 0 {
		c.JWT.ExpireHours = 24
	}
	c.JWT.ExpireTime = time.Duration(c.JWT.ExpireHours) * time.Hour
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
}

// MySQLDSN 返回数据库连接字符串。
// 外部传入的 DSN 也会强制 parseTime=true、loc=UTC，否则时间列无法扫描为 time.Time。
func (d DatabaseConfig) MySQLDSN() (string, error) {
	var mc *mysql.Config
	if d.DSN != "" {
		parsed, err := mysql.ParseDSN(d.DSN)
		if err != nil {
			return "", fmt.Errorf("parse database dsn: %w", err)
		}
		mc = parsed
	} else {
		mc = mysql.NewConfig()
		mc.User = d.Username
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(d.Host, d.Port)
		mc.DBName = d.DBName
		if d.Charset != "" {
			mc.Params = map[string]string{"charset": d.Charset}
		}
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN(), nil
}

// IsRelease 是否为生产模式
func (c *Config) IsRelease() bool {
	return c != nil && c.Server.Mode == "release"
}

// Print 打印当前配置（隐藏敏感信息）
func (c *Config) Print(log *zap.SugaredLogger) {
	log.Infof("server: %s (mode: %s)", c.Server.Port, c.Server.Mode)
	if c.Database.DSN != "" {
		log.Info("database: dsn from environment")
	} else {
		log.Infof("database: %s@%s:%s/%s", c.Database.Username, c.Database.Host, c.Database.Port, c.Database.DBName)
	}
	log.Infof("ai: model=%s enabled=%v", c.AI.Model, c.AI.APIKey != "")
	log.Infof("email: %v", c.Email.Enabled)
}
