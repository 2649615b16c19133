package core

import (
	"context"
	"fmt"

	"diagramcore/internal/blob"
	"diagramcore/internal/infra/persistence/blobsnapshot"
	"diagramcore/internal/infra/persistence/memory"
	"diagramcore/internal/infra/persistence/postgres"
	"diagramcore/internal/infra/persistence/sqlite"
	"diagramcore/pkg/domain"
)

// StorageDriver identifies a concrete model store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-process only (default)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // snapshot blobs (fs, s3, memory)
)

// StorageConfig selects and parameterizes the backend behind OpenModelStore.
type StorageConfig struct {
	Driver      StorageDriver
	Document    string
	SQLitePath  string
	PostgresDSN string
	Blob        blob.Config
	// SnapshotRetention bounds the blob snapshots kept per document; 0 keeps all.
	SnapshotRetention int
}

// OpenModelStore returns the model store named by cfg.Driver. Stores holding
// external handles also implement io.Closer.
func OpenModelStore(ctx context.Context, cfg StorageConfig) (domain.ModelStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageMemory
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		s, err := sqlite.NewStore(ctx, cfg.SQLitePath, cfg.Document)
		if err != nil {
			return nil, err
		}
		return s, nil
	case StoragePostgres:
		s, err := postgres.NewStore(ctx, cfg.PostgresDSN, cfg.Document)
		if err != nil {
			return nil, err
		}
		return s, nil
	case StorageBlob:
		blobs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		s, err := blobsnapshot.NewStore(ctx, blobs, cfg.Document, cfg.SnapshotRetention)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
