package database

import (
	"context"

	"github.com/chdash/chdash/config"
	"github.com/chdash/chdash/database/docdb"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

var documentDB docdb.DocDB

// Init opens the doc DB selected by storage.docdb-backend.
func Init(ctx context.Context, cfg *config.Config) docdb.DocDB {
	db, err := Open(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open the document database",
			zap.String("backend", cfg.Storage.DocDBBackend),
			zap.String("path", cfg.Storage.Path),
			zap.Error(err))
	}
	documentDB = db
	log.Info("Initialize database successfully",
		zap.String("backend", cfg.Storage.DocDBBackend),
		zap.String("path", cfg.Storage.Path))
	return db
}

func Open(ctx context.Context, cfg *config.Config) (docdb.DocDB, error) {
	switch cfg.Storage.DocDBBackend {
	case config.DocDBBackendGenji:
		return docdb.NewGenjiDB(ctx, &docdb.GenjiConfig{
			Path:     cfg.Storage.Path,
			LogLevel: cfg.Log.Level,
		})
	default:
		return docdb.NewSQLiteDB(cfg.Storage.Path, true)
	}
}

func Stop() {
	if documentDB == nil {
		return
	}
	log.Info("Stopping document database")
	if err := documentDB.Close(); err != nil {
		log.Warn("failed to close the document database", zap.Error(err))
		return
	}
	log.Info("Stop document database successfully")
}
