package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port  string
	Debug bool

	MySQLDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AccessSecret  string
	RefreshSecret string

	KafkaBrokers []string
	KafkaTopic   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	PurgeSweepInterval time.Duration
	OutboxInterval     time.Duration
	ReconcileInterval  time.Duration

	SuperAdminUsername string
	SuperAdminPassword string
	SuperAdminEmail    string
}

// Load 从环境变量读取配置，未设置时使用开发默认值
func Load() *Config {
	return &Config{
		Port:  getenv("APP_PORT", "8080"),
		Debug: getbool("APP_DEBUG", false),

		MySQLDSN: getenv("MYSQL_DSN", "user:password@tcp(127.0.0.1:3306)/jazzforum?charset=utf8mb4&parseTime=True"),

		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       geti("REDIS_DB", 0),

		AccessSecret:  getenv("JWT_ACCESS_SECRET", "secret-key"),
		RefreshSecret: getenv("JWT_REFRESH_SECRET", "refresh-key"),

		KafkaBrokers: getlist("KAFKA_BROKERS"),
		KafkaTopic:   getenv("KAFKA_TOPIC", "forum.lifecycle"),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     geti("SMTP_PORT", 587),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", "Irish Jazz Forum <no-reply@irishjazzforum.ie>"),

		PurgeSweepInterval: getdur("PURGE_SWEEP_INTERVAL", time.Hour),
		OutboxInterval:     getdur("OUTBOX_INTERVAL", time.Second),
		ReconcileInterval:  getdur("RECONCILE_INTERVAL", 10*time.Minute),

		SuperAdminUsername: getenv("SUPER_ADMIN_USERNAME", "admin"),
		SuperAdminPassword: getenv("SUPER_ADMIN_PASSWORD", ""),
		SuperAdminEmail:    getenv("SUPER_ADMIN_EMAIL", "admin@irishjazzforum.ie"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func geti(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getlist(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
