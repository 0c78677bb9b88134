package docdb

import (
	"context"
	"path"

	"github.com/chdash/chdash/utils"

	"github.com/dgraph-io/badger/v3"
	"github.com/genjidb/genji"
	"github.com/genjidb/genji/document"
	"github.com/genjidb/genji/engine/badgerengine"
	"github.com/genjidb/genji/types"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

type GenjiConfig struct {
	Path     string
	LogLevel string
}

type genjiDB struct {
	db      *genji.DB
	closeCh chan struct{}
}

func NewGenjiDB(ctx context.Context, cfg *GenjiConfig) (DocDB, error) {
	badger.DefaultIteratorOptions.PrefetchValues = false
	dataPath := path.Join(cfg.Path, "docdb")
	l, err := newBadgerLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(dataPath).
		WithLogger(l).
		WithZSTDCompressionLevel(3).
		WithBlockSize(8 * 1024).
		WithValueThreshold(128 * 1024)
	engine, err := badgerengine.NewEngine(opts)
	if err != nil {
		return nil, err
	}
	d := &genjiDB{closeCh: make(chan struct{})}
	go utils.GoWithRecovery(func() {
		doGCLoop(engine.DB, d.closeCh)
	}, nil)
	d.db, err = genji.New(ctx, engine)
	if err != nil {
		close(d.closeCh)
		return nil, err
	}
	if err := d.tryInitTables(); err != nil {
		return nil, err
	}
	log.Info("genji doc db opened", zap.String("path", dataPath))
	return d, nil
}

func NewGenjiDBFromGenji(g *genji.DB) (DocDB, error) {
	d := &genjiDB{db: g}
	if err := d.tryInitTables(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *genjiDB) tryInitTables() error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS chdash_config (module TEXT primary key, config TEXT)",
	}
	for _, stmt := range stmts {
		if err := d.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (d *genjiDB) Close() error {
	if d.closeCh != nil {
		close(d.closeCh)
	}
	return d.db.Close()
}

func (d *genjiDB) SaveConfig(ctx context.Context, cfg map[string]string) error {
	err := d.db.WithContext(ctx).Exec("DELETE FROM chdash_config")
	if err != nil {
		return err
	}
	for module, data := range cfg {
		err = d.db.WithContext(ctx).Exec("INSERT INTO chdash_config (module, config) VALUES (?, ?)", module, data)
		if err != nil {
			return err
		}
		log.Info("save config into storage", zap.String("module", module), zap.String("config", data))
	}
	return nil
}

func (d *genjiDB) LoadConfig(ctx context.Context) (map[string]string, error) {
	res, err := d.db.WithContext(ctx).Query("SELECT module, config FROM chdash_config")
	if err != nil {
		return nil, err
	}
	defer res.Close()
	cfgMap := make(map[string]string)
	err = res.Iterate(func(d types.Document) error {
		var module, cfg string
		err = document.Scan(d, &module, &cfg)
		if err != nil {
			return err
		}
		cfgMap[module] = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cfgMap, nil
}
