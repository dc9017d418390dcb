package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"fridgewiz/server/internal/config"
	"fridgewiz/server/internal/infrastructure/database"
	"fridgewiz/server/internal/interfaces/httpserver/responses"
)

// HealthHandler exposes the health endpoint.
type HealthHandler struct {
	cfg *config.Config
	db  *gorm.DB
	log zerolog.Logger
}

func NewHealthHandler(cfg *config.Config, db *gorm.DB, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		cfg: cfg,
		db:  db,
		log: log.With().Str("component", "health-handler").Logger(),
	}
}

// Check handles GET /api/health. Reports database connectivity.
func (h *HealthHandler) Check(c *gin.Context) {
	now := time.Now().UTC().Format(time.RFC3339)

	if err := database.Ping(c.Request.Context(), h.db); err != nil {
		h.log.Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusInternalServerError, responses.HealthResponse{
			Status:    "unhealthy",
			Timestamp: now,
			Database:  "disconnected",
			Error:     "Database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, responses.HealthResponse{
		Status:      "healthy",
		Timestamp:   now,
		Database:    "connected",
		Environment: h.cfg.Environment,
	})
}
