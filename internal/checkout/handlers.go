package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noah-isme/backend-kursus/internal/common"
	"github.com/noah-isme/backend-kursus/internal/obs"
)

// Handler exposes the HTTP endpoint for checkout session creation.
type Handler struct {
	Svc *Service
	Dev bool
}

// Create handles POST /create-checkout-session.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.Label(common.CodeInternal), "checkout handler unavailable")
		return
	}
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		recordCheckout("invalid")
		common.JSONError(w, http.StatusBadRequest, common.Label(common.CodeInvalidRequest), "invalid JSON body")
		return
	}
	sess, err := h.Svc.CreateSession(r.Context(), req)
	if err != nil {
		recordCheckout(resultFor(err))
		common.WriteError(w, err, h.Dev)
		return
	}
	recordCheckout("success")
	common.JSON(w, http.StatusOK, sess)
}

func resultFor(err error) string {
	var app *common.AppError
	if errors.As(err, &app) && app.Code == common.CodeInvalidRequest {
		return "invalid"
	}
	return "provider_error"
}

func recordCheckout(result string) {
	if obs.CheckoutSessionsTotal != nil {
		obs.CheckoutSessionsTotal.WithLabelValues(result).Inc()
	}
}
