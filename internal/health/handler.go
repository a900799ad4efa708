package health

import (
	"context"
	"net/http"
	"time"

	"github.com/noah-isme/backend-kursus/internal/common"
)

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Message      string
	Checker      Checker
	RedisTimeout time.Duration
}

type liveResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Live reports liveness status. It performs no external dependency calls.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	message := h.Message
	if message == "" {
		message = "course checkout API"
	}
	common.JSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports readiness based on dependency probes. Redis is optional;
// a nil Checker means there is nothing to probe.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"redis": "ok"}
	if h.Checker == nil {
		status["redis"] = "not configured"
		common.JSON(w, http.StatusOK, status)
		return
	}
	if err := h.Checker.PingRedis(r.Context(), h.redisTimeout()); err != nil {
		status["redis"] = err.Error()
		common.JSON(w, http.StatusServiceUnavailable, status)
		return
	}
	common.JSON(w, http.StatusOK, status)
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
