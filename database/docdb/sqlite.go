package docdb

import (
	"context"
	"database/sql"
	"path"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type sqliteDB struct {
	db *sql.DB

	insertConfigStmt *sql.Stmt
}

func NewSQLiteDB(dbPath string, useWAL bool) (DocDB, error) {
	dbPath = path.Join(dbPath, "chdash-sqlite.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite db %s", dbPath)
	}
	if useWAL {
		_, err := db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			return nil, err
		}
	}
	d := &sqliteDB{db: db}
	if err := d.tryInitTables(); err != nil {
		return nil, err
	}
	d.insertConfigStmt, err = d.db.Prepare(`INSERT OR REPLACE INTO chdash_config (module, config) VALUES (?, ?)`)
	if err != nil {
		return nil, err
	}
	log.Info("sqlite doc db opened", zap.String("path", dbPath))
	return d, nil
}

func (d *sqliteDB) tryInitTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chdash_config (module TEXT primary key, config TEXT)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (d *sqliteDB) Close() error {
	if d.insertConfigStmt != nil {
		_ = d.insertConfigStmt.Close()
	}
	return d.db.Close()
}

func (d *sqliteDB) SaveConfig(ctx context.Context, cfg map[string]string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM chdash_config`); err != nil {
		return err
	}
	stmt := tx.StmtContext(ctx, d.insertConfigStmt)
	for module, data := range cfg {
		if _, err = stmt.ExecContext(ctx, module, data); err != nil {
			return err
		}
		log.Info("save config into storage", zap.String("module", module), zap.String("config", data))
	}
	return tx.Commit()
}

func (d *sqliteDB) LoadConfig(ctx context.Context) (map[string]string, error) {
	res, err := d.db.QueryContext(ctx, `SELECT module, config FROM chdash_config`)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	cfgMap := make(map[string]string)
	for res.Next() {
		var module, config string
		if err := res.Scan(&module, &config); err != nil {
			return nil, err
		}
		cfgMap[module] = config
	}
	return cfgMap, res.Err()
}
