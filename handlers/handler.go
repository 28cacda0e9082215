package handlers

import (
	"time"

	"expenshare-backend/config"
	"expenshare-backend/realtime"
	"expenshare-backend/services"
	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger writes that lose a race are retried this many times before the
// client sees 409.
const mutationAttempts = 3

const dateLayout = "2006-01-02"

// Handler serves the HTTP API on top of the domain services.
type Handler struct {
	svc *services.Services
	jwt *utils.JWTManager
	hub *realtime.Hub
	cfg *config.Config
	log *zap.Logger
}

func New(svc *services.Services, jwt *utils.JWTManager, hub *realtime.Hub, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{svc: svc, jwt: jwt, hub: hub, cfg: cfg, log: log}
}

func (h *Handler) retry(c *gin.Context, fn func() error) error {
	return services.WithRetry(c.Request.Context(), mutationAttempts, fn)
}

// parseDate accepts YYYY-MM-DD; empty means today.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, raw)
}

func parseAmount(c *gin.Context, raw string) (decimal.Decimal, bool) {
	amount, err := services.ParseAmount(raw)
	if err != nil {
		utils.ServiceError(c, err)
		return decimal.Zero, false
	}
	return amount, true
}
