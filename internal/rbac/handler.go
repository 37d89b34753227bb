package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ridepass/ridepass/internal/auth"
	"github.com/ridepass/ridepass/internal/platform/httpx"
)

// DecisionObserver records check outcomes for monitoring.
type DecisionObserver interface {
	ObserveAccessCheck(outcome string)
}

// Handler exposes the access evaluator over HTTP.
type Handler struct {
	logger     *slog.Logger
	evaluator  *Evaluator
	observer   DecisionObserver
	cookieName string
}

// NewHandler constructs the check endpoint handler. observer may be nil.
func NewHandler(logger *slog.Logger, evaluator *Evaluator, observer DecisionObserver, cookieName string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, evaluator: evaluator, observer: observer, cookieName: cookieName}
}

// MountRoutes registers the check route on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/check", h.handleCheck)
}

type checkResponse struct {
	Success       bool                  `json:"success"`
	User          auth.PrincipalSummary `json:"user"`
	ContextType   *string               `json:"contextType"`
	AllowedRoutes []string              `json:"allowedRoutes"`
	HasAccess     bool                  `json:"hasAccess"`
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	rawToken := ""
	if cookie, err := r.Cookie(h.cookieName); err == nil {
		rawToken = cookie.Value
	}
	path := r.URL.Query().Get("path")

	decision, err := h.evaluator.Check(r.Context(), rawToken, path)
	if err != nil {
		if errors.Is(err, httpx.ErrUnauthorized) {
			h.observe("unauthenticated")
		} else {
			h.logger.Error("access check", slog.Any("error", err))
			h.observe("error")
		}
		httpx.RespondError(w, err)
		return
	}

	if decision.HasAccess {
		h.observe("granted")
	} else {
		h.observe("denied")
	}
	httpx.JSON(w, http.StatusOK, checkResponse{
		Success:       true,
		User:          decision.Principal.Summary(),
		ContextType:   decision.Principal.ContextType,
		AllowedRoutes: decision.AllowedRoutes,
		HasAccess:     decision.HasAccess,
	})
}

func (h *Handler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveAccessCheck(outcome)
	}
}
