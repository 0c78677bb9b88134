package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/chdash/chdash/database/docdb"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

const (
	dashboardModule = "dashboard"
)

func LoadConfigFromStorage(ctx context.Context, db docdb.DocDB) error {
	cfgMap, err := db.LoadConfig(ctx)
	if err != nil {
		return err
	}
	UpdateGlobalConfig(func(curCfg Config) (res Config) {
		res = curCfg
		for module, cfgStr := range cfgMap {
			switch module {
			case dashboardModule:
				var newCfg Dashboard
				if err = json.NewDecoder(bytes.NewReader([]byte(cfgStr))).Decode(&newCfg); err != nil {
					return
				}
				if newCfg.Valid() {
					res.Dashboard = newCfg
				} else {
					log.Info("load invalid config",
						zap.String("module", module),
						zap.Reflect("module-config", newCfg))
				}
			default:
				err = fmt.Errorf("unknow module config in storage, module: %v, config: %v", module, cfgStr)
				return
			}
			log.Info("load config from storage",
				zap.String("module", module),
				zap.String("module-config", cfgStr))
		}
		return
	})
	return err
}

func saveConfigIntoStorage(db docdb.DocDB) error {
	if db == nil {
		return nil
	}
	cfg := GetGlobalConfig()
	data, err := json.Marshal(cfg.Dashboard)
	if err != nil {
		return err
	}
	return db.SaveConfig(context.Background(), map[string]string{
		dashboardModule: string(data),
	})
}
