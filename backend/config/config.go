package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host string
	Port int
}

type DB struct {
	Driver string // "mysql" or "sqlite"
	Host   string
	Port   int
	User   string
	Pass   string
	Name   string
	Path   string // sqlite file path
}

type JWT struct {
	Secret string
	Issuer string
	ExpMin int
}

type Redis struct {
	Enabled bool
	Addr    string
	DB      int
}

type Command struct {
	Timeout       time.Duration
	RetryInterval time.Duration
	MaxRetries    int
}

type Restart struct {
	MaxAttempts int
	Cooldown    time.Duration
}

type Backup struct {
	// MasterKey is a base64-encoded 32-byte AES key for credential encryption.
	MasterKey     string
	CheckInterval time.Duration
}

type Admin struct {
	Username string
	Password string
}

type Telegram struct {
	Enabled  bool
	BotToken string
	ChatID   string
}

type Config struct {
	HTTP     HTTP
	DB       DB
	JWT      JWT
	Redis    Redis
	Command  Command
	Restart  Restart
	Backup   Backup
	Admin    Admin
	Telegram Telegram
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("backend.host", "127.0.0.1")
	v.SetDefault("backend.port", 9400)
	v.SetDefault("backend.db.driver", "sqlite")
	v.SetDefault("backend.db.host", "127.0.0.1")
	v.SetDefault("backend.db.port", 3306)
	v.SetDefault("backend.db.user", "root")
	v.SetDefault("backend.db.pass", "")
	v.SetDefault("backend.db.name", "servermon")
	v.SetDefault("backend.db.path", "servermon.db")
	v.SetDefault("backend.redis.enabled", false)
	v.SetDefault("backend.redis.addr", "127.0.0.1:6379")
	v.SetDefault("backend.redis.db", 0)
	v.SetDefault("backend.command.timeout_sec", 30)
	v.SetDefault("backend.command.retry_interval_sec", 5)
	v.SetDefault("backend.command.max_retries", 3)
	v.SetDefault("backend.restart.max_attempts", 3)
	v.SetDefault("backend.restart.cooldown_sec", 20)
	v.SetDefault("backend.backup.check_interval_sec", 60)
	v.SetDefault("backend.telegram.enabled", false)
	v.SetDefault("backend.admin.username", "admin")
	v.SetDefault("backend.admin.password", "admin")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{
		HTTP: HTTP{Host: v.GetString("backend.host"), Port: v.GetInt("backend.port")},
		DB: DB{
			Driver: v.GetString("backend.db.driver"),
			Host:   v.GetString("backend.db.host"),
			Port:   v.GetInt("backend.db.port"),
			User:   v.GetString("backend.db.user"),
			Pass:   v.GetString("backend.db.pass"),
			Name:   v.GetString("backend.db.name"),
			Path:   v.GetString("backend.db.path"),
		},
		Redis: Redis{
			Enabled: v.GetBool("backend.redis.enabled"),
			Addr:    v.GetString("backend.redis.addr"),
			DB:      v.GetInt("backend.redis.db"),
		},
		Command: Command{
			Timeout:       time.Duration(v.GetInt("backend.command.timeout_sec")) * time.Second,
			RetryInterval: time.Duration(v.GetInt("backend.command.retry_interval_sec")) * time.Second,
			MaxRetries:    v.GetInt("backend.command.max_retries"),
		},
		Restart: Restart{
			MaxAttempts: v.GetInt("backend.restart.max_attempts"),
			Cooldown:    time.Duration(v.GetInt("backend.restart.cooldown_sec")) * time.Second,
		},
		Backup: Backup{
			MasterKey:     v.GetString("backend.backup.master_key"),
			CheckInterval: time.Duration(v.GetInt("backend.backup.check_interval_sec")) * time.Second,
		},
		Admin: Admin{
			Username: v.GetString("backend.admin.username"),
			Password: v.GetString("backend.admin.password"),
		},
		Telegram: Telegram{
			Enabled:  v.GetBool("backend.telegram.enabled"),
			BotToken: v.GetString("backend.telegram.bot_token"),
			ChatID:   v.GetString("backend.telegram.chat_id"),
		},
	}
	cfg.JWT.Secret = v.GetString("backend.jwt.secret")
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "dev-secret"
	}
	cfg.JWT.Issuer = v.GetString("backend.jwt.issuer")
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "servermon"
	}
	cfg.JWT.ExpMin = v.GetInt("backend.jwt.exp_min")
	if cfg.JWT.ExpMin <= 0 {
		cfg.JWT.ExpMin = 60
	}
	return cfg, nil
}
