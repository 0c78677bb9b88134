package service

import (
	"net"

	"github.com/chdash/chdash/component/dashboard"
	"github.com/chdash/chdash/config"
	"github.com/chdash/chdash/database/docdb"
	"github.com/chdash/chdash/service/http"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

func Init(cfg *config.Config, docDB docdb.DocDB, pool dashboard.HostPool) {
	l, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		log.Fatal("failed to listen",
			zap.String("address", cfg.Address),
			zap.Error(err),
		)
	}

	go http.ServeHTTP(&cfg.Log, l, docDB, pool)

	log.Info(
		"starting http service",
		zap.String("address", cfg.Address),
	)
}

func Stop() {
	log.Info("shutting down http service")
	http.StopHTTP()
}
