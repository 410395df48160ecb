package config

import (
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/viper"
)

// 用于管理应用配置

const defaultSessionSecret = "plan_beyond_session_secret"

var (
	// 使用 atomic.Value 存储 *Config，实现无锁读取
	appConfig atomic.Value
	configMu  sync.Mutex // 仅用于写操作互斥
	configDir = "config"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	WebAuthn  WebAuthnConfig  `mapstructure:"webauthn"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Frontend  FrontendConfig  `mapstructure:"frontend"`
	OTP       OTPConfig       `mapstructure:"otp"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	JWT       JWTConfig       `mapstructure:"jwt"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Type     string `mapstructure:"type"`     // sqlite, mysql, postgres
	Filename string `mapstructure:"filename"` // for sqlite
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"` // database name
	SSL      bool   `mapstructure:"ssl"`  // enable TLS/SSL
}

type SessionConfig struct {
	Secret        string `mapstructure:"secret"`
	CookieName    string `mapstructure:"cookie_name"`
	MaxAgeSeconds int    `mapstructure:"max_age_seconds"`
	Secure        bool   `mapstructure:"secure"`
}

// WebAuthnConfig 描述依赖方（RP）三元组
type WebAuthnConfig struct {
	RPName              string `mapstructure:"rp_name"`
	RPID                string `mapstructure:"rp_id"`
	Origin              string `mapstructure:"origin"`
	LoginTimeoutSeconds int    `mapstructure:"login_timeout_seconds"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	SSL      bool   `mapstructure:"ssl"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type FrontendConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// OTPConfig 各流程验证码有效期（分钟）
type OTPConfig struct {
	RegisterTTLMinutes        int `mapstructure:"register_ttl_minutes"`
	LoginTTLMinutes           int `mapstructure:"login_ttl_minutes"`
	AmbassadorLoginTTLMinutes int `mapstructure:"ambassador_login_ttl_minutes"`
}

type RateLimitConfig struct {
	PasswordRequests      int `mapstructure:"password_requests"`
	PasswordWindowMinutes int `mapstructure:"password_window_minutes"`
}

type JWTConfig struct {
	Secret                string `mapstructure:"secret"`
	InviteExpirationHours int    `mapstructure:"invite_expiration_hours"`
}

// Get 获取当前配置的快照（高性能无锁）
func Get() Config {
	val := appConfig.Load()
	if val == nil {
		return Config{}
	}
	c, ok := val.(*Config)
	if !ok {
		return Config{}
	}
	return *c
}

func GetConfigDir() string {
	return configDir
}

func InitConfig(customConfigDir string) {
	v := initViper(customConfigDir)
	loadAndStore(v)
	enforceSecretSafety()
	log.Println("✅ 配置加载成功")
}

func initViper(customConfigDir string) *viper.Viper {
	v := viper.New()

	customConfigDir = strings.TrimSpace(customConfigDir)
	if customConfigDir == "" {
		customConfigDir = "config"
	}
	configDir = customConfigDir

	// 设置配置文件路径
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 设置默认值
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.filename", "database/plan_beyond.db")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "root")
	v.SetDefault("database.name", "plan_beyond")
	v.SetDefault("database.ssl", false)
	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookie_name", "plan_beyond_session")
	v.SetDefault("session.max_age_seconds", 3600)
	v.SetDefault("session.secure", false)
	v.SetDefault("webauthn.rp_name", "The Plan Beyond")
	v.SetDefault("webauthn.rp_id", "localhost")
	v.SetDefault("webauthn.origin", "http://localhost:3000")
	v.SetDefault("webauthn.login_timeout_seconds", 60)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.ssl", false)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "plan_beyond")
	v.SetDefault("frontend.base_url", "http://localhost:3000")
	v.SetDefault("otp.register_ttl_minutes", 10)
	v.SetDefault("otp.login_ttl_minutes", 5)
	v.SetDefault("otp.ambassador_login_ttl_minutes", 10)
	v.SetDefault("rate_limit.password_requests", 5)
	v.SetDefault("rate_limit.password_window_minutes", 15)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.invite_expiration_hours", 72)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			log.Println("⚠️  未找到配置文件，将仅使用环境变量或默认值")
		} else {
			log.Fatalf("❌ 读取配置文件失败: %v", err)
		}
	}

	// 配置环境变量覆盖
	// 规则：所有环境变量必须以 PLAN_BEYOND_ 开头
	// 例如：yaml 中的 server.port 对应环境变量 PLAN_BEYOND_SERVER_PORT
	v.SetEnvPrefix("PLAN_BEYOND")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

// loadAndStore 解析并原子更新配置
func loadAndStore(v *viper.Viper) {
	configMu.Lock()
	defer configMu.Unlock()

	var tempConfig Config
	if err := v.Unmarshal(&tempConfig); err != nil {
		log.Printf("❌ 配置解析失败: %v", err)
		return
	}

	if tempConfig.Server.Mode != "release" {
		if tempConfig.Session.Secret == "" {
			log.Println("⚠️ [开发模式警告] 未设置 Session Secret，将使用默认不安全密钥进行开发")
			tempConfig.Session.Secret = defaultSessionSecret
		}
		if tempConfig.JWT.Secret == "" {
			tempConfig.JWT.Secret = tempConfig.Session.Secret
		}
	}
	if tempConfig.JWT.Secret == "" {
		tempConfig.JWT.Secret = tempConfig.Session.Secret
	}

	appConfig.Store(&tempConfig)
	log.Println("✅ 配置已更新")
}

func enforceSecretSafety() {
	// release 模式下拦截不安全的 Session Secret
	curr := Get()
	if curr.Server.Mode == "release" {
		if curr.Session.Secret == "" || curr.Session.Secret == defaultSessionSecret {
			log.Fatal("❌ [安全严重错误] 生产模式(release)下必须设置安全的 Session Secret！\n请设置环境变量 PLAN_BEYOND_SESSION_SECRET 或在配置文件中指定 session.secret")
		}
	}
}

// SetForTest 直接替换当前配置快照，仅供测试使用
func SetForTest(cfg Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig.Store(&cfg)
}
