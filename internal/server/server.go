// Package server hosts the operational HTTP surface: health probes, the
// system status report and prometheus metrics. The client-facing credit API
// lives in the surrounding platform, not here.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fluxori-systems/creditcore/internal/config"
	creditdomain "github.com/fluxori-systems/creditcore/internal/creditsystem/domain"
	"github.com/fluxori-systems/creditcore/internal/observability"
	"github.com/fluxori-systems/creditcore/internal/observability/logger"
	"github.com/fluxori-systems/creditcore/internal/orgcontext"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, log *zap.Logger) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(scopeFromHeaders())
	r.Use(requestLogger(log.Named("http")))
	return r
}

// scopeFromHeaders copies the caller's org and user identity from request
// headers into the request context for downstream services and logs.
func scopeFromHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id, err := snowflake.ParseString(c.GetHeader("X-Org-ID")); err == nil {
			ctx = orgcontext.WithOrgID(ctx, id)
		}
		if id, err := snowflake.ParseString(c.GetHeader("X-User-ID")); err == nil {
			ctx = orgcontext.WithUserID(ctx, id)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l := log
		if orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context()); ok {
			l = logger.WithOrg(log, orgID.String())
		}
		l.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

type RouteParams struct {
	fx.In

	Engine *gin.Engine
	DB     *gorm.DB
	Credit creditdomain.Service
}

func registerRoutes(p RouteParams) {
	p.Engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	p.Engine.GET("/readyz", func(c *gin.Context) {
		sqlDB, err := p.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	p.Engine.GET("/v1/status", func(c *gin.Context) {
		status, err := p.Credit.GetSystemStatus(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, status)
	})

	p.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
