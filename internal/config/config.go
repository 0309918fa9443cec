// Package config loads the bootstrapper configuration.
//
// Sources, lowest precedence first:
//   - built-in defaults
//   - the configuration file (YAML, or JSON such as commissaire.conf)
//   - environment variables (COMMISSAIRE_*, and ETCDCTL_* for etcd)
//   - command-line flags, applied by the cli package
//
// When no file is named, DefaultPath is used if it exists. A file that is
// named explicitly must exist.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// DefaultPath is where commissaire keeps its configuration.
const DefaultPath = "/etc/commissaire/commissaire.conf"

// defaultPath is consulted when Load gets no path. Tests point it elsewhere.
var defaultPath = DefaultPath

// Backend names a store implementation.
type Backend string

const (
	BackendEtcd     Backend = "etcd"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendS3       Backend = "s3"
	BackendMemory   Backend = "memory"
)

// Backends lists the accepted backend names.
var Backends = []Backend{BackendEtcd, BackendSQLite, BackendPostgres, BackendS3, BackendMemory}

// Config is the complete bootstrap configuration.
type Config struct {
	// RootPrefix is the top-level path of the commissaire namespace.
	RootPrefix string `yaml:"root_prefix"`

	// PlanFile optionally replaces the built-in plan with a CUE file.
	PlanFile string `yaml:"plan_file"`

	// RequestTimeout bounds every single store request.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Concurrency is the number of directory creations in flight.
	Concurrency int `yaml:"concurrency"`

	Retry RetryConfig `yaml:"retry"`
	Store StoreConfig `yaml:"store"`

	// StorageHandlers is the commissaire.conf "storage-handlers" member,
	// given either as one object or a list of objects.
	StorageHandlers StorageHandlers `yaml:"storage-handlers"`
}

// RetryConfig bounds retries of transient store failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// StoreConfig selects and configures the store backend.
type StoreConfig struct {
	Backend  Backend        `yaml:"backend"`
	Etcd     EtcdConfig     `yaml:"etcd"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
	S3       S3Config       `yaml:"s3"`
}

// EtcdConfig configures the etcd v2 backend.
type EtcdConfig struct {
	Endpoints   []string      `yaml:"endpoints"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	CertFile    string        `yaml:"cert_file"`
	KeyFile     string        `yaml:"key_file"`
	CAFile      string        `yaml:"ca_file"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig configures the PostgreSQL backend.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// S3Config configures the S3/MinIO backend.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RootPrefix:     "commissaire",
		RequestTimeout: 5 * time.Second,
		Concurrency:    4,
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    2 * time.Second,
		},
		Store: StoreConfig{
			Backend: BackendEtcd,
			Etcd: EtcdConfig{
				Endpoints:   []string{"http://127.0.0.1:2379"},
				DialTimeout: 5 * time.Second,
			},
			SQLite: SQLiteConfig{Path: "commissaire.db"},
			S3:     S3Config{Region: "us-east-1", Bucket: "commissaire"},
		},
	}
}

// Load builds a Config from defaults, the file at path and the environment
// as seen through getenv. An empty path means DefaultPath, which may be absent.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	usingDefault := path == ""
	if usingDefault {
		path = defaultPath
	}
	if err := cfg.readFile(path); err != nil {
		if !(usingDefault && errors.Is(err, os.ErrNotExist)) {
			return nil, err
		}
	}

	if getenv != nil {
		cfg.ApplyEnv(getenv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	// Endpoints from the file replace the default list instead of
	// appending to it.
	c.Store.Etcd.Endpoints = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%s: parse config: %w", path, err)
	}
	if err := c.applyStorageHandlers(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(c.Store.Etcd.Endpoints) == 0 {
		c.Store.Etcd.Endpoints = Default().Store.Etcd.Endpoints
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if err := store.Validate(c.RootPrefix); err != nil {
		return fmt.Errorf("invalid root_prefix %q: %w", c.RootPrefix, err)
	}
	c.RootPrefix = store.Clean(c.RootPrefix)

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}

	switch c.Store.Backend {
	case BackendEtcd:
		if len(c.Store.Etcd.Endpoints) == 0 {
			return fmt.Errorf("store.etcd.endpoints is required for the etcd backend")
		}
	case BackendSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required for the postgres backend")
		}
	case BackendS3:
		if c.Store.S3.Endpoint == "" || c.Store.S3.Bucket == "" {
			return fmt.Errorf("store.s3.endpoint and store.s3.bucket are required for the s3 backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q: must be one of %v", c.Store.Backend, Backends)
	}
	return nil
}
