package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chdash/chdash/database/docdb"

	"github.com/gin-gonic/gin"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

func HTTPService(g *gin.RouterGroup, docDB docdb.DocDB) {
	g.GET("", handleGetConfig)
	g.POST("", func(c *gin.Context) {
		handlePostConfig(c, docDB)
	})
}

func handleGetConfig(c *gin.Context) {
	cfg := GetGlobalConfig()
	c.JSON(http.StatusOK, cfg)
}

func handlePostConfig(c *gin.Context, docDB docdb.DocDB) {
	err := handleModifyConfig(c, docDB)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func handleModifyConfig(c *gin.Context, docDB docdb.DocDB) error {
	var reqNested map[string]interface{}
	if err := json.NewDecoder(c.Request.Body).Decode(&reqNested); err != nil {
		return err
	}
	for k, v := range reqNested {
		switch k {
		case dashboardModule:
			m, ok := v.(map[string]interface{})
			if !ok {
				return fmt.Errorf("%v config value is invalid: %v", k, v)
			}
			return handleDashboardConfigModify(m, docDB)
		default:
			return fmt.Errorf("config %v not support modify or unknow", k)
		}
	}
	return nil
}

func handleDashboardConfigModify(reqNested map[string]interface{}, docDB docdb.DocDB) error {
	cfg := GetGlobalConfig()
	current, err := json.Marshal(cfg.Dashboard)
	if err != nil {
		return err
	}

	var currentNested map[string]interface{}
	if err := json.NewDecoder(bytes.NewReader(current)).Decode(&currentNested); err != nil {
		return err
	}

	for k, newValue := range reqNested {
		oldValue, ok := currentNested[k]
		if !ok {
			return fmt.Errorf("unknow config `%v`", k)
		}
		if oldValue == newValue {
			continue
		}
		currentNested[k] = newValue
		log.Info("handle dashboard config modify",
			zap.String("name", k),
			zap.Reflect("old-value", oldValue),
			zap.Reflect("new-value", newValue))
	}

	data, err := json.Marshal(currentNested)
	if err != nil {
		return err
	}
	var newCfg Dashboard
	err = json.NewDecoder(bytes.NewReader(data)).Decode(&newCfg)
	if err != nil {
		return err
	}

	if !newCfg.Valid() {
		return fmt.Errorf("new config is invalid: %v", string(data))
	}
	UpdateGlobalConfig(func(curCfg Config) Config {
		curCfg.Dashboard = newCfg
		return curCfg
	})
	return saveConfigIntoStorage(docDB)
}
