package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type Config struct {
	Port         string `yaml:"port" validate:"required,numeric"`
	StorageType  string `yaml:"storage" validate:"oneof=file memory sqlite postgres"`
	CommentsFile string `yaml:"comments_file" validate:"required_if=StorageType file"`
	SQLitePath   string `yaml:"sqlite_path" validate:"required_if=StorageType sqlite"`
	DatabaseURL  string `yaml:"database_url" validate:"required_if=StorageType postgres"`
	PublicDir    string `yaml:"public_dir"`
	// FailFast - режим совместимости: ошибка хранилища завершает процесс.
	FailFast  bool   `yaml:"fail_fast"`
	LogFormat string `yaml:"log_format" validate:"oneof=json text"`
}

func Default() Config {
	return Config{
		Port:         "3000",
		StorageType:  StorageFile,
		CommentsFile: "comments.json",
		SQLitePath:   "comments.db",
		PublicDir:    "public",
		LogFormat:    "json",
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл
// (если путь задан), затем .env и переменные окружения.
// Флаги командной строки накладываются позже, вызывающим кодом.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}

	// .env не переопределяет уже заданные переменные; его отсутствие - не ошибка
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.StorageType, "STORAGE_TYPE")
	setString(&cfg.CommentsFile, "COMMENTS_FILE")
	setString(&cfg.SQLitePath, "SQLITE_PATH")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.PublicDir, "PUBLIC_DIR")
	setString(&cfg.LogFormat, "LOG_FORMAT")

	if val, ok := os.LookupEnv("FAIL_FAST"); ok && val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for env var FAIL_FAST: %q", val)
		}
		cfg.FailFast = b
	}
	return nil
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

// Validate проверяет итоговую конфигурацию.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + c.Port
}
