package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/novelreader.yaml"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	Environment               string        `koanf:"environment"`
	JWTSecret                 string        `koanf:"jwt_secret" required:"true"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`

	// StorageDir holds the uploaded EPUB files, one directory per owner.
	StorageDir string `koanf:"storage_dir"`
	// CacheDir holds derived artifacts such as parsed books.
	CacheDir        string `koanf:"cache_dir"`
	PreviewMaxChars int    `koanf:"preview_max_chars"`
	MaxUploadSizeMB int    `koanf:"max_upload_size_mb"`
}

func defaultConfig() *Config {
	return &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		Environment:               "production",
		ServerHost:                "0.0.0.0",
		ServerPort:                8080,
		StorageDir:                "/data/books",
		CacheDir:                  "/data/cache",
		PreviewMaxChars:           3000,
		MaxUploadSizeMB:           100,
	}
}

// New loads the config from the YAML file at $CONFIG_FILE (if it exists) and
// then from environment variables, which take precedence. Env var names are
// the upper-cased YAML keys, e.g. DATABASE_FILE_PATH.
func New() (*Config, error) {
	k := koanf.New(".")

	path := os.Getenv(configFileENV)
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	err := k.Load(env.Provider("", ".", strings.ToLower), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := defaultConfig()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.WithStack(err)
	}

	if cfg.Environment == "development" {
		applyDevelopmentDefaults(cfg)
	}

	if err := validateRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config pointing at an in-memory database.
func NewForTest() *Config {
	cfg := defaultConfig()
	cfg.Environment = "test"
	cfg.DatabaseFilePath = ":memory:"
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.DatabaseConnectRetryCount = 1
	cfg.DatabaseConnectRetryDelay = 0
	return cfg
}

// MaxUploadSizeBytes returns the upload limit in bytes.
func (cfg *Config) MaxUploadSizeBytes() int64 {
	return int64(cfg.MaxUploadSizeMB) * 1024 * 1024
}

func applyDevelopmentDefaults(cfg *Config) {
	cfg.DatabaseDebug = true
	if cfg.ServerHost == "0.0.0.0" {
		cfg.ServerHost = "127.0.0.1"
	}
}

func validateRequired(cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("required") != "true" {
			continue
		}
		if !v.Field(i).IsZero() {
			continue
		}
		key := field.Tag.Get("koanf")
		return errors.Errorf("missing required config: set %s or %s in the config file", strings.ToUpper(key), key)
	}
	return nil
}
