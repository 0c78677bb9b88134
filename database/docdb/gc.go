package docdb

import (
	"runtime"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

var (
	flattenTsKey    = []byte("chdash_last_flatten_ts")
	flattenInterval = 24 * time.Hour
	gcInterval      = 10 * time.Minute
)

func doGCLoop(db *badger.DB, closed chan struct{}) {
	log.Info("docdb gc loop started")
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	runGC(db)
	for {
		select {
		case <-ticker.C:
			runGC(db)
		case <-closed:
			log.Info("docdb gc loop stopped")
			return
		}
	}
}

func runGC(db *badger.DB) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic when running docdb gc", zap.Reflect("r", r), zap.Stack("stack"))
		}
	}()

	flattenIfDue(db, time.Now())
	for i := 0; i < 10; i++ {
		err := db.RunValueLogGC(0.1)
		if err == badger.ErrNoRewrite {
			return
		}
		if err != nil {
			log.Warn("docdb value log gc failed", zap.Error(err))
			return
		}
	}
}

// flattenIfDue compacts old key versions at most once per flattenInterval,
// value log gc cannot reclaim their space otherwise.
func flattenIfDue(db *badger.DB, now time.Time) bool {
	last, err := loadFlattenTs(db)
	if err != nil {
		log.Warn("failed to load last flatten ts", zap.Error(err))
	}
	if now.Sub(time.Unix(last, 0)) < flattenInterval {
		return false
	}
	if err := db.Flatten(runtime.NumCPU()/2 + 1); err != nil {
		log.Warn("docdb flatten failed", zap.Error(err))
		return false
	}
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set(flattenTsKey, []byte(strconv.FormatInt(now.Unix(), 10)))
	})
	if err != nil {
		log.Warn("failed to store flatten ts", zap.Error(err))
	}
	return true
}

func loadFlattenTs(db *badger.DB) (ts int64, err error) {
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(flattenTsKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			ts, err = strconv.ParseInt(string(val), 10, 64)
			return err
		})
	})
	return
}
