package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ponyo877/pairchat/server/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	HTTPAddrKey          = "http.addr"
	GRPCAddrKey          = "grpc.addr"
	StorageBackendKey    = "storage.backend"
	StorageDirKey        = "storage.dir"
	StorageSQLitePathKey = "storage.sqlite_path"
	PairingPolicyKey     = "pairing.policy"
	LogLevelKey          = "log.level"
	LogFormatKey         = "log.format"
	ShutdownTimeoutKey   = "shutdown.timeout"

	EnvPrefix = "PAIRCHAT"
)

const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

type Config struct {
	HTTPAddr        string
	GRPCAddr        string
	Storage         Storage
	PairingPolicy   domain.MatchPolicy
	LogLevel        zerolog.Level
	LogFormat       string
	ShutdownTimeout time.Duration
}

type Storage struct {
	Backend    string
	Dir        string
	SQLitePath string
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(HTTPAddrKey, ":8080")
	v.SetDefault(GRPCAddrKey, ":50051")
	v.SetDefault(StorageBackendKey, BackendFS)
	v.SetDefault(StorageDirKey, "./temp")
	v.SetDefault(StorageSQLitePathKey, "./pairchat-images.db")
	v.SetDefault(PairingPolicyKey, "lifo")
	v.SetDefault(LogLevelKey, "info")
	v.SetDefault(LogFormatKey, "console")
	v.SetDefault(ShutdownTimeoutKey, 5*time.Second)
}

// New returns a viper instance with defaults and PAIRCHAT_* environment
// lookup. A non-empty cfgFile is read as well.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}
	return v, nil
}

func Load(v *viper.Viper) (Config, error) {
	var errs []error

	policy, err := domain.ParseMatchPolicy(v.GetString(PairingPolicyKey))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", PairingPolicyKey, err))
	}
	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString(LogLevelKey)))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", LogLevelKey, err))
	}

	cfg := Config{
		HTTPAddr: v.GetString(HTTPAddrKey),
		GRPCAddr: v.GetString(GRPCAddrKey),
		Storage: Storage{
			Backend:    strings.ToLower(v.GetString(StorageBackendKey)),
			Dir:        v.GetString(StorageDirKey),
			SQLitePath: v.GetString(StorageSQLitePathKey),
		},
		PairingPolicy:   policy,
		LogLevel:        level,
		LogFormat:       strings.ToLower(v.GetString(LogFormatKey)),
		ShutdownTimeout: v.GetDuration(ShutdownTimeoutKey),
	}

	if cfg.HTTPAddr == "" {
		errs = append(errs, fmt.Errorf("%s is required", HTTPAddrKey))
	}
	if cfg.GRPCAddr == "" {
		errs = append(errs, fmt.Errorf("%s is required", GRPCAddrKey))
	}
	switch cfg.Storage.Backend {
	case BackendFS:
		if cfg.Storage.Dir == "" {
			errs = append(errs, fmt.Errorf("%s is required for the fs backend", StorageDirKey))
		}
	case BackendSQLite:
		if cfg.Storage.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("%s is required for the sqlite backend", StorageSQLitePathKey))
		}
	default:
		errs = append(errs, fmt.Errorf("%s: unknown backend %q", StorageBackendKey, cfg.Storage.Backend))
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("%s: unknown format %q", LogFormatKey, cfg.LogFormat))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", ShutdownTimeoutKey))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
