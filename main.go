package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"

	"github.com/chdash/chdash/component/clickhouse"
	"github.com/chdash/chdash/config"
	"github.com/chdash/chdash/database"
	"github.com/chdash/chdash/service"
	"github.com/chdash/chdash/utils/printer"

	"github.com/VictoriaMetrics/VictoriaMetrics/lib/procutil"
	"github.com/pingcap/log"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	nmVersion          = "version"
	nmAddr             = "address"
	nmAdvertiseAddress = "advertise-address"
	nmClickHouseURL    = "clickhouse.url"
	nmClickHouseUser   = "clickhouse.user"
	nmProtocol         = "clickhouse.protocol"
	nmLogPath          = "log.path"
	nmStoragePath      = "storage.path"
	nmConfig           = "config"
)

var (
	printVersion     = pflag.BoolP(nmVersion, "V", false, "print version information and exit")
	listenAddr       = pflag.String(nmAddr, "", "TCP address to listen for http connections")
	advertiseAddress = pflag.String(nmAdvertiseAddress, "", "chdash server advertise IP:PORT")
	clickhouseURL    = pflag.String(nmClickHouseURL, "", "URL of the ClickHouse server, replaces the configured hosts")
	clickhouseUser   = pflag.String(nmClickHouseUser, "", "user of the ClickHouse server given by --clickhouse.url")
	protocol         = pflag.String(nmProtocol, "", "protocol used to talk to ClickHouse, http or native")
	logPath          = pflag.String(nmLogPath, "", "Log path of chdash server")
	storagePath      = pflag.String(nmStoragePath, "", "Storage path of chdash server")
	configPath       = pflag.String(nmConfig, "", "config file path")
)

func main() {
	// There are dependencies that use `flag`.
	// For isolation and avoiding conflict, we use another command line parser package `pflag`.
	pflag.Parse()

	if *printVersion {
		fmt.Println(printer.GetInfo())
		return
	}

	cfg, err := config.InitConfig(*configPath, overrideConfig)
	if err != nil {
		stdlog.Fatalf("Failed to initialize config, err: %s", err.Error())
	}

	cfg.Log.InitDefaultLogger()
	printer.PrintInfo()
	log.Info("config", zap.Any("config", cfg))

	mustCreateDirs(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	docDB := database.Init(ctx, cfg)
	defer database.Stop()

	if err := config.LoadConfigFromStorage(ctx, docDB); err != nil {
		stdlog.Fatalf("Failed to load config from storage, err: %s", err.Error())
	}

	pool, err := clickhouse.NewPool(ctx, cfg.ClickHouse, cfg.Security, clickhouse.DefaultClientFactory)
	if err != nil {
		log.Fatal("failed to create clickhouse clients", zap.Error(err))
	}
	defer pool.Close()
	go pool.Run(ctx, config.Subscribe())

	service.Init(cfg, docDB, pool)
	defer service.Stop()

	go config.ReloadRoutine(ctx, *configPath)
	sig := procutil.WaitForSigterm()
	log.Info("received signal", zap.String("sig", sig.String()))
	cancel()
}

func overrideConfig(cfg *config.Config) {
	pflag.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case nmAddr:
			cfg.Address = *listenAddr
		case nmAdvertiseAddress:
			cfg.AdvertiseAddress = *advertiseAddress
		case nmClickHouseURL:
			cfg.ClickHouse.Hosts = []config.Host{{URL: *clickhouseURL, User: *clickhouseUser}}
		case nmProtocol:
			cfg.ClickHouse.Protocol = *protocol
		case nmLogPath:
			cfg.Log.Path = *logPath
		case nmStoragePath:
			cfg.Storage.Path = *storagePath
		}
	})
}

func mustCreateDirs(cfg *config.Config) {
	if cfg.Log.Path != "" {
		if err := os.MkdirAll(cfg.Log.Path, os.ModePerm); err != nil {
			log.Fatal("failed to init log path", zap.Error(err))
		}
	}

	if err := os.MkdirAll(cfg.Storage.Path, os.ModePerm); err != nil {
		log.Fatal("failed to init storage path", zap.Error(err))
	}
}
