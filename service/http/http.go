package http

import (
	"io"
	"net"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/chdash/chdash/component/dashboard"
	"github.com/chdash/chdash/config"
	"github.com/chdash/chdash/database/docdb"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	httpServer *http.Server = nil
)

func ServeHTTP(l *config.Log, listener net.Listener, docDB docdb.DocDB, pool dashboard.HostPool) {
	gin.SetMode(gin.ReleaseMode)

	var logFile *os.File
	var err error
	if l.Path != "" {
		logFileName := path.Join(l.Path, "service.log")
		logFile, err = os.OpenFile(logFileName, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			log.Fatal("Failed to open the log file", zap.String("filename", logFileName))
		}
	} else {
		logFile = os.Stdout
	}

	httpServer = &http.Server{
		Handler:           NewRouter(logFile, docDB, pool),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err = httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		log.Warn("failed to serve http service", zap.Error(err))
	}
}

func NewRouter(logWriter io.Writer, docDB docdb.DocDB, pool dashboard.HostPool) *gin.Engine {
	ng := gin.New()
	if logWriter != nil {
		ng.Use(gin.LoggerWithWriter(logWriter))
	}

	// recovery
	ng.Use(gin.Recovery())
	ng.SetHTMLTemplate(dashboard.Templates())

	ng.Handle(http.MethodGet, "/health", func(g *gin.Context) {
		g.JSON(http.StatusOK, Status{Health: true})
	})

	// route
	configGroup := ng.Group("/config")
	config.HTTPService(configGroup, docDB)
	// register pprof http api
	pprof.Register(ng)

	promHandler := promhttp.Handler()
	promGroup := ng.Group("/metrics")
	promGroup.Any("", func(c *gin.Context) {
		promHandler.ServeHTTP(c.Writer, c.Request)
	})

	dashboardService := dashboard.NewService(pool)
	apiGroup := ng.Group("/api/v1", dashboard.NoStore)
	dashboardService.HTTPService(apiGroup)

	ng.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/0/running-queries")
	})
	// page routes share their first segment with the static routes above
	ng.NoRoute(dashboard.NoStore, func(c *gin.Context) {
		handlerNoRouter(c, dashboardService)
	})
	return ng
}

// Try the dashboard pages first. If not handled, then return a 404 error.
func handlerNoRouter(c *gin.Context, s *dashboard.Service) {
	//reset to default
	c.Writer.WriteHeader(http.StatusOK)
	if s.PageHandler(c) {
		return
	}

	c.String(http.StatusNotFound, "404 page not found")
}

type Status struct {
	Health bool `json:"health"`
}

func StopHTTP() {
	if httpServer == nil {
		return
	}

	log.Info("shutting down http server")
	_ = httpServer.Close()
	log.Info("http server is down")
}
