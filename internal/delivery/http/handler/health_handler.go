package handler

import (
	"context"
	"net/http"
	"time"

	"care-booking-marketplace/pkg/response"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		log:         log,
	}
}

// Check pings the database and Redis
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"database": "ok", "redis": "ok"}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		h.log.Warn("Health check: database unreachable")
		status["database"] = "unavailable"
		healthy = false
	}
	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			h.log.Warnf("Health check: redis unreachable: %v", err)
			status["redis"] = "unavailable"
			healthy = false
		}
	}

	if !healthy {
		response.Error(w, http.StatusServiceUnavailable, "Service unavailable", status)
		return
	}
	response.Success(w, http.StatusOK, "ok", status)
}
