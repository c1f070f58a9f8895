package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mohammad-safakhou/onboarder/config"
	"github.com/mohammad-safakhou/onboarder/internal/cache"
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/generator"
	"github.com/mohammad-safakhou/onboarder/internal/normalize"
	"github.com/mohammad-safakhou/onboarder/internal/onboarding"
	"github.com/mohammad-safakhou/onboarder/internal/policy"
	"github.com/mohammad-safakhou/onboarder/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Onboarder is the service behind the HTTP surface.
type Onboarder interface {
	Configure(ctx context.Context, req onboarding.Request) (*onboarding.Result, error)
	Normalize(cfg *dashboard.Configuration, businessType, family string) (*dashboard.Configuration, *normalize.Report, error)
	Detect(description string) (businessType, family string, ok bool)
	Get(ctx context.Context, id string) (store.ConfigRecord, error)
	Update(ctx context.Context, id string, upd store.ConfigUpdate) (store.ConfigRecord, error)
}

// Options configures the HTTP surface.
type Options struct {
	Service        Onboarder
	JWTSecret      []byte
	AllowOrigins   []string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// New builds the echo instance with every route registered.
func New(opts Options) *echo.Echo {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"*"}
	}
	logger := opts.Logger.Named("server")
	m := newMetrics()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("2M"))
	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// Errors that are not HTTPErrors are only detailed in the log.
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = http.StatusText(code)
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		fields := []zap.Field{
			zap.Int("status", code),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("remote_ip", c.RealIP()),
			zap.Error(err),
		}
		if code >= 500 {
			logger.Error("request failed", fields...)
		} else {
			logger.Info("request rejected", fields...)
		}
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"success": false, "error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, "Cookie"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})))
	registerDocs(e)

	h := &handler{svc: opts.Service, metrics: m, timeout: opts.RequestTimeout, logger: logger}
	api := e.Group("/api")
	api.POST("/configure", h.configure)
	api.POST("/normalize", h.normalize)
	api.GET("/templates/detect", h.detect)
	api.GET("/config/:id", h.getConfig)
	api.PUT("/config/:id", h.updateConfig, authMiddleware(opts.JWTSecret))
	return e
}

// Run wires storage, generation and the HTTP surface from cfg and serves
// until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	tables, err := policy.Resolve(cfg.Policy.TablesFile, cfg.Policy.MaxTabs)
	if err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Storage.Postgres.Timeout+time.Second)
	defer cancel()
	st, err := store.NewWithDSN(dialCtx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return err
	}
	defer st.Close()

	var c *cache.Cache
	if cfg.Storage.Redis.Enabled {
		rc := cfg.Storage.Redis
		rdb, err := cache.Dial(dialCtx, rc.Addr(), rc.Password, rc.DB, rc.Timeout)
		if err != nil {
			return err
		}
		defer rdb.Close()
		c = cache.New(rdb, rc.TTL, logger)
	}

	gen := generator.NewAnthropic(generator.AnthropicOptions{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
	}, logger)

	svc := onboarding.NewService(onboarding.Options{
		Normalizer:   normalize.New(tables, logger),
		Generator:    gen,
		Store:        st,
		Cache:        c,
		DashboardURL: cfg.Server.DashboardURL,
		Logger:       logger,
	})
	e := New(Options{
		Service:        svc,
		JWTSecret:      []byte(cfg.Server.JWTSecret),
		AllowOrigins:   cfg.Server.AllowOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Address))
		errCh <- e.Start(cfg.Server.Address)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	}
}
