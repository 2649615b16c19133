// Package config loads diagramcore settings from DIAGRAMCORE_* environment
// variables and translates them into storage and engine options.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"

	"diagramcore/internal/blob"
	"diagramcore/internal/core"
)

// Metrics backends accepted by DIAGRAMCORE_METRICS.
const (
	MetricsNone       = "none"
	MetricsExpvar     = "expvar"
	MetricsPrometheus = "prometheus"
)

// Config holds every environment-driven setting.
type Config struct {
	Storage           core.StorageDriver `env:"DIAGRAMCORE_STORAGE_DRIVER"     envDefault:"memory"`
	Document          string             `env:"DIAGRAMCORE_DOCUMENT"           envDefault:"default"`
	SQLitePath        string             `env:"DIAGRAMCORE_SQLITE_PATH"        envDefault:"diagramcore.db"`
	PostgresDSN       string             `env:"DIAGRAMCORE_POSTGRES_DSN"`
	SnapshotRetention int                `env:"DIAGRAMCORE_SNAPSHOT_RETENTION" envDefault:"0"`

	BlobDriver        blob.Driver `env:"DIAGRAMCORE_BLOB_DRIVER"           envDefault:"fs"`
	BlobFSRoot        string      `env:"DIAGRAMCORE_BLOB_FS_ROOT"          envDefault:"./blobdata"`
	S3Bucket          string      `env:"DIAGRAMCORE_BLOB_S3_BUCKET"`
	S3Region          string      `env:"DIAGRAMCORE_BLOB_S3_REGION"        envDefault:"us-east-1"`
	S3Endpoint        string      `env:"DIAGRAMCORE_BLOB_S3_ENDPOINT"`
	S3PathStyle       bool        `env:"DIAGRAMCORE_BLOB_S3_PATH_STYLE"`
	S3AccessKeyID     string      `env:"DIAGRAMCORE_BLOB_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string      `env:"DIAGRAMCORE_BLOB_S3_SECRET_ACCESS_KEY"`
	S3SessionToken    string      `env:"DIAGRAMCORE_BLOB_S3_SESSION_TOKEN"`

	ZIndexEnabled            bool `env:"DIAGRAMCORE_ZINDEX_ENABLED"                     envDefault:"true"`
	SelectedZIndex           int  `env:"DIAGRAMCORE_ZINDEX_SELECTED"                    envDefault:"1000"`
	ElevateOnSelection       bool `env:"DIAGRAMCORE_ZINDEX_ELEVATE_ON_SELECTION"        envDefault:"true"`
	EdgesAboveConnectedNodes bool `env:"DIAGRAMCORE_ZINDEX_EDGES_ABOVE_CONNECTED_NODES" envDefault:"false"`

	ZoomMin     float64       `env:"DIAGRAMCORE_ZOOM_MIN"     envDefault:"0.1"`
	ZoomMax     float64       `env:"DIAGRAMCORE_ZOOM_MAX"     envDefault:"10"`
	FanOutLimit int           `env:"DIAGRAMCORE_FANOUT_LIMIT" envDefault:"1"`
	BatchWindow time.Duration `env:"DIAGRAMCORE_BATCH_WINDOW" envDefault:"0s"`
	PasteOffset float64       `env:"DIAGRAMCORE_PASTE_OFFSET" envDefault:"20"`

	LogLevel string `env:"DIAGRAMCORE_LOG_LEVEL" envDefault:"info"`
	Metrics  string `env:"DIAGRAMCORE_METRICS"   envDefault:"none"`
	AuditLog bool   `env:"DIAGRAMCORE_AUDIT_LOG" envDefault:"false"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	switch c.Storage {
	case core.StorageMemory, core.StorageSQLite, core.StoragePostgres, core.StorageBlob:
	default:
		return fmt.Errorf("invalid storage driver %q", c.Storage)
	}
	if c.ZoomMin <= 0 || c.ZoomMax < c.ZoomMin {
		return fmt.Errorf("invalid zoom bounds %g..%g", c.ZoomMin, c.ZoomMax)
	}
	if c.FanOutLimit < 1 {
		return fmt.Errorf("fan-out limit must be at least 1, got %d", c.FanOutLimit)
	}
	if c.BatchWindow < 0 {
		return fmt.Errorf("batch window must not be negative, got %s", c.BatchWindow)
	}
	if c.SnapshotRetention < 0 {
		return fmt.Errorf("snapshot retention must not be negative, got %d", c.SnapshotRetention)
	}
	switch c.Metrics {
	case MetricsNone, MetricsExpvar, MetricsPrometheus:
	default:
		return fmt.Errorf("invalid metrics backend %q", c.Metrics)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return lvl, nil
}

// StorageConfig translates the storage settings for core.OpenModelStore.
func (c Config) StorageConfig() core.StorageConfig {
	return core.StorageConfig{
		Driver:      c.Storage,
		Document:    c.Document,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		Blob: blob.Config{
			Driver: c.BlobDriver,
			FSRoot: c.BlobFSRoot,
			S3: blob.S3Config{
				Region:          c.S3Region,
				Bucket:          c.S3Bucket,
				Endpoint:        c.S3Endpoint,
				AccessKeyID:     c.S3AccessKeyID,
				SecretAccessKey: c.S3SecretAccessKey,
				SessionToken:    c.S3SessionToken,
				PathStyle:       c.S3PathStyle,
			},
		},
		SnapshotRetention: c.SnapshotRetention,
	}
}

// ZIndexConfig returns the z-index middleware defaults.
func (c Config) ZIndexConfig() core.ZIndexConfig {
	return core.ZIndexConfig{
		Enabled:                  c.ZIndexEnabled,
		SelectedZIndex:           c.SelectedZIndex,
		ElevateOnSelection:       c.ElevateOnSelection,
		EdgesAboveConnectedNodes: c.EdgesAboveConnectedNodes,
	}
}

// Logger builds a text slog logger at the configured level.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	lvl, err := c.level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// EngineOptions translates the engine settings. reg receives the Prometheus
// collectors when that backend is selected; nil uses the default registerer.
func (c Config) EngineOptions(logger *slog.Logger, reg prometheus.Registerer) ([]core.Option, error) {
	opts := []core.Option{
		core.WithZIndexConfig(c.ZIndexConfig()),
		core.WithZoomBounds(c.ZoomMin, c.ZoomMax),
		core.WithFanOutLimit(c.FanOutLimit),
		core.WithBatchWindow(c.BatchWindow),
		core.WithPasteOffset(c.PasteOffset),
	}
	if logger != nil {
		opts = append(opts, core.WithLogger(logger))
		if c.AuditLog {
			opts = append(opts, core.WithAuditRecorder(core.LoggerAuditRecorder{Logger: logger}))
		}
	}
	switch c.Metrics {
	case MetricsExpvar:
		opts = append(opts, core.WithMetricsRecorder(core.NewExpvarMetricsRecorder("")))
	case MetricsPrometheus:
		rec, err := core.NewPrometheusMetricsRecorder(reg)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, core.WithMetricsRecorder(rec))
	}
	return opts, nil
}
