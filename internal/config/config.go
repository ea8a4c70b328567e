package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ストレージ種別
const (
	StorageBadger   = "badger"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// ErrMissingDatabaseURL はPostgreSQLの接続情報が不足している場合のエラー
var ErrMissingDatabaseURL = errors.New("DATABASE_URL or DB_HOST/DB_USERNAME/DB_PASSWORD/DB_NAME is required when STORAGE_TYPE=postgres")

// Config はサーバー全体の設定（環境変数から読み込む）
type Config struct {
	Port            string        `envconfig:"PORT" default:"3000"`
	StorageType     string        `envconfig:"STORAGE_TYPE" default:"badger"`
	BadgerDir       string        `envconfig:"BADGER_DIR" default:"./data/messages"`
	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	DBHost          string        `envconfig:"DB_HOST"`
	DBPort          string        `envconfig:"DB_PORT" default:"5432"`
	DBUser          string        `envconfig:"DB_USERNAME"`
	DBPassword      string        `envconfig:"DB_PASSWORD"`
	DBName          string        `envconfig:"DB_NAME"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty       bool          `envconfig:"LOG_PRETTY" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load は環境変数から設定を読み込む
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch cfg.StorageType {
	case StorageBadger, StoragePostgres, StorageMemory:
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_TYPE value %q", cfg.StorageType)
	}

	if strings.Contains(strings.TrimSpace(cfg.Port), " ") {
		return Config{}, fmt.Errorf("invalid PORT value: %q", cfg.Port)
	}

	return cfg, nil
}

// Addr はリッスンアドレスを返す
// ":3000" や "127.0.0.1:3000" のような指定もそのまま受け付ける
func (c Config) Addr() string {
	port := strings.TrimSpace(c.Port)
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// PostgresURL はPostgreSQLの接続URLを返す
// DATABASE_URL が無ければ個別の環境変数から組み立てる（ECS + Secrets Manager対応）
func (c Config) PostgresURL() (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	if c.DBHost == "" || c.DBUser == "" || c.DBPassword == "" || c.DBName == "" {
		return "", ErrMissingDatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=require",
	}
	return u.String(), nil
}
