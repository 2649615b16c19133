package config

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"diagramcore/internal/blob"
	"diagramcore/internal/core"
	"diagramcore/internal/infra/persistence/memory"
	"diagramcore/pkg/domain"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Storage != core.StorageMemory || cfg.Document != "default" {
		t.Fatalf("unexpected storage defaults %s/%s", cfg.Storage, cfg.Document)
	}
	want := core.ZIndexConfig{Enabled: true, SelectedZIndex: 1000, ElevateOnSelection: true}
	if diff := cmp.Diff(want, cfg.ZIndexConfig()); diff != "" {
		t.Fatalf("z-index defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.ZoomMin != 0.1 || cfg.ZoomMax != 10 || cfg.FanOutLimit != 1 || cfg.PasteOffset != 20 {
		t.Fatalf("unexpected engine defaults %+v", cfg)
	}
	if cfg.BatchWindow != 0 || cfg.Metrics != MetricsNone || cfg.LogLevel != "info" {
		t.Fatalf("unexpected ambient defaults %+v", cfg)
	}
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"DIAGRAMCORE_STORAGE_DRIVER":                     "blob",
		"DIAGRAMCORE_DOCUMENT":                           "board",
		"DIAGRAMCORE_SNAPSHOT_RETENTION":                 "5",
		"DIAGRAMCORE_BLOB_DRIVER":                        "s3",
		"DIAGRAMCORE_BLOB_S3_BUCKET":                     "diagrams",
		"DIAGRAMCORE_BLOB_S3_ENDPOINT":                   "http://minio:9000",
		"DIAGRAMCORE_BLOB_S3_PATH_STYLE":                 "true",
		"DIAGRAMCORE_BLOB_S3_ACCESS_KEY_ID":              "AKIA",
		"DIAGRAMCORE_BLOB_S3_SECRET_ACCESS_KEY":          "SECRET",
		"DIAGRAMCORE_ZINDEX_EDGES_ABOVE_CONNECTED_NODES": "true",
		"DIAGRAMCORE_ZINDEX_SELECTED":                    "50",
		"DIAGRAMCORE_BATCH_WINDOW":                       "16ms",
		"DIAGRAMCORE_FANOUT_LIMIT":                       "4",
		"DIAGRAMCORE_LOG_LEVEL":                          "debug",
	})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.BatchWindow != 16*time.Millisecond || cfg.FanOutLimit != 4 {
		t.Fatalf("unexpected engine overrides %+v", cfg)
	}
	want := core.StorageConfig{
		Driver:      core.StorageBlob,
		Document:    "board",
		SQLitePath:  "diagramcore.db",
		PostgresDSN: "",
		Blob: blob.Config{
			Driver: blob.DriverS3,
			FSRoot: "./blobdata",
			S3: blob.S3Config{
				Region:          "us-east-1",
				Bucket:          "diagrams",
				Endpoint:        "http://minio:9000",
				AccessKeyID:     "AKIA",
				SecretAccessKey: "SECRET",
				PathStyle:       true,
			},
		},
		SnapshotRetention: 5,
	}
	if diff := cmp.Diff(want, cfg.StorageConfig()); diff != "" {
		t.Fatalf("storage config mismatch (-want +got):\n%s", diff)
	}
	z := cfg.ZIndexConfig()
	if z.SelectedZIndex != 50 || !z.EdgesAboveConnectedNodes {
		t.Fatalf("unexpected z-index overrides %+v", z)
	}
}

func TestLoadFromRejectsInvalidValues(t *testing.T) {
	cases := map[string]struct {
		env  map[string]string
		want string
	}{
		"unparsable":     {map[string]string{"DIAGRAMCORE_FANOUT_LIMIT": "many"}, "parse env"},
		"storage driver": {map[string]string{"DIAGRAMCORE_STORAGE_DRIVER": "mongo"}, "invalid storage driver"},
		"zoom":           {map[string]string{"DIAGRAMCORE_ZOOM_MIN": "2", "DIAGRAMCORE_ZOOM_MAX": "1"}, "invalid zoom bounds"},
		"zero zoom":      {map[string]string{"DIAGRAMCORE_ZOOM_MIN": "0"}, "invalid zoom bounds"},
		"fan-out":        {map[string]string{"DIAGRAMCORE_FANOUT_LIMIT": "0"}, "fan-out limit"},
		"batch window":   {map[string]string{"DIAGRAMCORE_BATCH_WINDOW": "-1s"}, "batch window"},
		"retention":      {map[string]string{"DIAGRAMCORE_SNAPSHOT_RETENTION": "-1"}, "snapshot retention"},
		"metrics":        {map[string]string{"DIAGRAMCORE_METRICS": "statsd"}, "invalid metrics backend"},
		"log level":      {map[string]string{"DIAGRAMCORE_LOG_LEVEL": "chatty"}, "invalid log level"},
	}
	for name, tc := range cases {
		if _, err := LoadFrom(tc.env); err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", name, tc.want, err)
		}
	}
}

func TestLoadReadsProcessEnvironment(t *testing.T) {
	t.Setenv("DIAGRAMCORE_DOCUMENT", "from-env")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Document != "from-env" {
		t.Fatalf("expected document from env, got %s", cfg.Document)
	}
}

func TestLoggerHonoursLevel(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"DIAGRAMCORE_LOG_LEVEL": "warn"})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	var buf bytes.Buffer
	logger, err := cfg.Logger(&buf)
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}

func TestEngineOptionsDriveEngine(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"DIAGRAMCORE_METRICS":   MetricsPrometheus,
		"DIAGRAMCORE_AUDIT_LOG": "true",
	})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	var buf bytes.Buffer
	logger, _ := cfg.Logger(&buf)
	reg := prometheus.NewRegistry()
	opts, err := cfg.EngineOptions(logger, reg)
	if err != nil {
		t.Fatalf("EngineOptions: %v", err)
	}
	engine, err := core.NewEngine(memory.NewStore(), opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()
	if err := engine.Emit(context.Background(), domain.AddNodes{Nodes: []domain.Node{{ID: "n1"}}}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected prometheus metrics to be registered and observed")
	}
	if !strings.Contains(buf.String(), "addNodes") {
		t.Fatalf("expected audit log line, got %q", buf.String())
	}

	if _, err := cfg.EngineOptions(logger, reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestEngineOptionsExpvar(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"DIAGRAMCORE_METRICS": MetricsExpvar})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	opts, err := cfg.EngineOptions(nil, nil)
	if err != nil {
		t.Fatalf("EngineOptions: %v", err)
	}
	if len(opts) != 6 {
		t.Fatalf("expected five engine options plus the metrics recorder, got %d", len(opts))
	}
}
