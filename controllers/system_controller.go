package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/ABFerraz00/mandacafe/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dbProbeTimeout = 3 * time.Second

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemController struct {
	Metrics     *services.MetricsAggregator
	DB          Pinger
	environment string
	startedAt   time.Time
	logger      *zap.Logger
}

func NewSystemController(metrics *services.MetricsAggregator, db Pinger, environment string, logger *zap.Logger) *SystemController {
	return &SystemController{
		Metrics:     metrics,
		DB:          db,
		environment: environment,
		startedAt:   time.Now(),
		logger:      logger,
	}
}

func (sc *SystemController) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    services.StatusOK,
		"uptime":    time.Since(sc.startedAt).Seconds(),
		"timestamp": time.Now(),
	})
}

func (sc *SystemController) Status(c *gin.Context) {
	if err := sc.ping(c); err != nil {
		sc.logger.Error("database probe failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":      services.StatusError,
			"database":    "disconnected",
			"environment": sc.environment,
			"timestamp":   time.Now(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      services.StatusOK,
		"database":    "connected",
		"environment": sc.environment,
		"uptime":      time.Since(sc.startedAt).Seconds(),
		"timestamp":   time.Now(),
	})
}

// Health reports the aggregator verdict, or ERROR with 503 when the
// database cannot be reached.
func (sc *SystemController) Health(c *gin.Context) {
	report := sc.Metrics.HealthVerdict()
	if err := sc.ping(c); err != nil {
		sc.logger.Error("database probe failed", zap.Error(err))
		report.Status = services.StatusError
		report.Issues = append(report.Issues, "Database unreachable")
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (sc *SystemController) GetMetrics(c *gin.Context) {
	respondData(c, http.StatusOK, sc.Metrics.Snapshot())
}

func (sc *SystemController) ResetMetrics(c *gin.Context) {
	sc.Metrics.Reset()
	sc.logger.Info("metrics reset", zap.String("ip", c.ClientIP()))
	c.JSON(http.StatusOK, gin.H{"message": "metrics reset", "timestamp": time.Now()})
}

func (sc *SystemController) ping(c *gin.Context) error {
	ctx, cancel := context.WithTimeout(c.Request.Context(), dbProbeTimeout)
	defer cancel()
	return sc.DB.Ping(ctx)
}
