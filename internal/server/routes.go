package server

import (
	"net/http"
	"time"

	"github.com/danmuck/cic64/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (a *Admin) RegisterRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(a.appeared).String(),
			"service": a.cfg.ID,
			"version": version,
		})
	})

	a.router.GET("/ready", func(c *gin.Context) {
		status := http.StatusOK
		if !a.ctrl.Ready() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   a.ctrl.Ready(),
			"service": a.cfg.ID,
			"version": version,
		})
	})

	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.ctrl.Status())
	})

	a.router.POST("/shutdown", func(c *gin.Context) {
		if err := a.auth.Validate(auth.BearerToken(c.GetHeader("Authorization"))); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		a.cfg.Logger.Warn().Str("client_ip", c.ClientIP()).Msg("shutdown requested")
		a.ctrl.Shutdown()
		c.JSON(http.StatusAccepted, gin.H{"status": "stopping"})
	})
}
