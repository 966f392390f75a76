// Package server is the optional admin HTTP surface: health, readiness,
// Prometheus metrics, supervisor status and an authenticated shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/cic64/internal/auth"
	"github.com/danmuck/cic64/internal/observability"
	"github.com/danmuck/cic64/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const version = "0.1.0"

// Controller is the part of the supervisor the admin routes reach.
type Controller interface {
	Status() service.Status
	Ready() bool
	Shutdown()
}

type Config struct {
	ID          string
	Token       string
	CorsOrigins []string
	Logger      zerolog.Logger
}

type Admin struct {
	cfg      Config
	ctrl     Controller
	auth     auth.Validator
	router   *gin.Engine
	appeared time.Time
}

func New(cfg Config, ctrl Controller) *Admin {
	if cfg.ID == "" {
		cfg.ID = "cicctl"
	}
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(cfg.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.ID))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	a := &Admin{
		cfg:      cfg,
		ctrl:     ctrl,
		auth:     auth.StaticToken{Token: cfg.Token},
		router:   r,
		appeared: time.Now(),
	}
	a.RegisterRoutes()
	return a
}

func (a *Admin) HTTPRouter() *gin.Engine {
	return a.router
}

// Serve listens on addr until ctx is done.
func (a *Admin) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.cfg.Logger.Info().Str("addr", addr).Msg("admin server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
