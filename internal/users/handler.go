package users

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ridepass/ridepass/internal/audit"
	"github.com/ridepass/ridepass/internal/platform/httpx"
	"github.com/ridepass/ridepass/internal/rbac"
)

// Handler exposes principal administration over HTTP.
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

// MountRoutes registers principal administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}", h.handleSetCustom)
}

type userPayload struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	RoleID            int64     `json:"roleId"`
	RoleName          string    `json:"roleName"`
	ContextType       *string   `json:"contextType"`
	ContextID         *int64    `json:"contextId"`
	CustomPermissions []string  `json:"customPermissions"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toPayload(acc PrincipalAccount) userPayload {
	custom := acc.CustomPermissions
	if custom == nil {
		custom = []string{}
	}
	return userPayload{
		ID:                acc.ID,
		Username:          acc.Username,
		Email:             acc.Email,
		RoleID:            acc.RoleID,
		RoleName:          acc.RoleName,
		ContextType:       acc.ContextType,
		ContextID:         acc.ContextID,
		CustomPermissions: custom,
		CreatedAt:         acc.CreatedAt,
		UpdatedAt:         acc.UpdatedAt,
	}
}

func principalID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid user id", httpx.ErrValidation)
	}
	return id, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload := make([]userPayload, 0, len(accounts))
	for _, acc := range accounts {
		payload = append(payload, toPayload(acc))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "users": payload})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := principalID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	acc, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "user": toPayload(acc)})
}

type setCustomRequest struct {
	CustomPermissions []string `json:"customPermissions"`
}

func (h *Handler) handleSetCustom(w http.ResponseWriter, r *http.Request) {
	id, err := principalID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req setCustomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if req.CustomPermissions == nil {
		httpx.RespondError(w, fmt.Errorf("%w: customPermissions is required", httpx.ErrValidation))
		return
	}
	acc, err := h.service.SetCustomPermissions(r.Context(), id, req.CustomPermissions)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, id, fmt.Sprintf("%d custom permissions", len(acc.CustomPermissions)))
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "user": toPayload(acc)})
}

func (h *Handler) recordAudit(r *http.Request, entityID int64, detail string) {
	actor, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		return
	}
	h.auditor.Record(r.Context(), audit.Event{
		ActorID:  actor.ID,
		Action:   "user.custom_permissions",
		Entity:   "principal",
		EntityID: entityID,
		Detail:   detail,
	})
}
