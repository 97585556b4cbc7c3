package restapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"code-sourcery.de/time-elapsed/common"
	"code-sourcery.de/time-elapsed/config"
	"code-sourcery.de/time-elapsed/elapsed"
	"code-sourcery.de/time-elapsed/logger"
	"code-sourcery.de/time-elapsed/metrics"
	"code-sourcery.de/time-elapsed/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var log = logger.GetLogger("rest-api")

var httpServer *http.Server
var stopReloading func()

func Shutdown() error {

	if stopReloading != nil {
		stopReloading()
		stopReloading = nil
	}
	var result error
	if httpServer != nil {
		log.Debug("Shutting down http server")
		ctx, closeFunc := context.WithTimeout(context.Background(), time.Duration(2000)*time.Millisecond)
		defer closeFunc()
		result = httpServer.Shutdown(ctx)
	}
	return result
}

// NewRouter wires all routes. limiter may be nil to disable rate limiting.
// The returned function swaps in a reloaded configuration; thresholds, the
// default unit and the time zone take effect with the next request.
func NewRouter(cfg *config.Config, m *metrics.Metrics, gatherer prometheus.Gatherer, limiter *ratelimit.Limiter) (*gin.Engine, func(*config.Config)) {

	a := &api{metrics: m}
	a.config.Store(cfg)
	applyConfig := func(newConfig *config.Config) {
		log.Info("Applying reloaded configuration, thresholds: " + common.Join(newConfig.GetThresholds(), ", ", func(t *elapsed.Threshold) string {
			return t.Name + "=" + t.String()
		}))
		a.config.Store(newConfig)
	}

	// gin's request logger is too chatty outside of debug mode
	router := gin.New()
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery(), requestId(), m.Middleware())

	router.GET("/health", a.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	accounts := gin.Accounts{}
	accounts[cfg.GetUserName()] = cfg.GetPassword()
	authorized := router.Group("/", gin.BasicAuth(accounts))
	if limiter != nil {
		authorized.Use(limiter.Middleware(m))
	}

	authorized.GET("/units", a.units)
	authorized.POST("/elapsed", a.checkElapsed)
	authorized.GET("/thresholds", a.listThresholds)
	authorized.POST("/thresholds/:name", a.checkThreshold)
	return router, applyConfig
}

func Init(cfg *config.Config, registry *prometheus.Registry) error {

	host := cfg.GetBindIp()
	port := cfg.GetBindPort()
	log.Debug("REST API starting up on " + host + ":" + strconv.Itoa(port))

	runGinInReleaseMode := cfg.GetLogLevel() != logger.LEVEL_DEBUG && cfg.GetLogLevel() != logger.LEVEL_TRACE
	if runGinInReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *ratelimit.Limiter
	if cfg.GetRateLimit() != nil {
		limiter = ratelimit.NewLimiter(cfg.GetRateLimit())
	}
	router, applyConfig := NewRouter(cfg, metrics.New(registry), registry, limiter)
	stopReloading = config.OnReload(applyConfig)

	httpServer = &http.Server{
		Addr:              host + ":" + strconv.Itoa(port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Launch http server in a separate goroutine
	var immediateError = atomic.Pointer[error]{}

	go func() {
		// the next line will never return until the server is finished
		// UNLESS it fails to bind to the desired socket ...
		var err error
		if cfg.GetTLSConfig() != nil {
			tConf := cfg.GetTLSConfig()
			log.Info("TLS enabled, using cert " + tConf.CertFilePath + " and private key " + tConf.PrivateKeyFilePath)
			err = httpServer.ListenAndServeTLS(tConf.CertFilePath, tConf.PrivateKeyFilePath)
		} else {
			log.Warn("TLS NOT enabled by configuration, running unencrypted")
			err = httpServer.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			immediateError.Store(&err)
		}
	}()
	common.SleepMillis(1000)
	var value = immediateError.Load()
	if value != nil {
		stopReloading()
		stopReloading = nil
		return *value
	}
	log.Info("REST API listening on " + httpServer.Addr)
	return nil
}
