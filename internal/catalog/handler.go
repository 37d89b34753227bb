package catalog

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ridepass/ridepass/internal/audit"
	"github.com/ridepass/ridepass/internal/platform/httpx"
	"github.com/ridepass/ridepass/internal/rbac"
)

// Handler exposes catalog administration over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	auditor *audit.Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, auditor *audit.Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, auditor: auditor}
}

// MountRoutes registers catalog routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleUpsert)
}

type entryPayload struct {
	Code        string  `json:"code"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	ContextType *string `json:"contextType"`
	Route       string  `json:"route"`
	Active      *bool   `json:"active"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListActive(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.logger.Error("list catalog", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload := make([]entryPayload, 0, len(entries))
	for _, e := range entries {
		active := e.Active
		payload = append(payload, entryPayload{
			Code:        e.Code,
			Title:       e.Title,
			Category:    e.Category,
			ContextType: e.ContextType,
			Route:       e.Route,
			Active:      &active,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "permissions": payload})
}

type upsertRequest struct {
	Permissions []entryPayload `json:"permissions"`
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	entries := make([]Entry, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		active := true
		if p.Active != nil {
			active = *p.Active
		}
		entries = append(entries, Entry{
			Code:        p.Code,
			Title:       p.Title,
			Category:    p.Category,
			ContextType: p.ContextType,
			Route:       p.Route,
			Active:      active,
		})
	}
	if err := h.service.Upsert(r.Context(), entries); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if actor, ok := rbac.PrincipalFromContext(r.Context()); ok {
		h.auditor.Record(r.Context(), audit.Event{
			ActorID: actor.ID,
			Action:  "catalog.upsert",
			Entity:  "permission_entry",
			Detail:  fmt.Sprintf("%d entries", len(entries)),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}
