package roles

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

// Handler exposes role administration over HTTP.
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

// MountRoutes registers role routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Patch("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

type rolePayload struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	IsDefault     bool      `json:"isDefault"`
	ContextType   *string   `json:"contextType"`
	Permissions   []string  `json:"permissions"`
	AssignedCount int64     `json:"assignedCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toPayload(d RoleDetail) rolePayload {
	perms := d.Permissions
	if perms == nil {
		perms = []string{}
	}
	return rolePayload{
		ID:            d.ID,
		Name:          d.Name,
		IsDefault:     d.IsDefault,
		ContextType:   d.ContextType,
		Permissions:   perms,
		AssignedCount: d.AssignedCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func roleID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid role id", httpx.ErrValidation)
	}
	return id, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload := make([]rolePayload, 0, len(details))
	for _, d := range details {
		payload = append(payload, toPayload(d))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "roles": payload})
}

type createRequest struct {
	Name        string `json:"name"`
	CloneFromID *int64 `json:"cloneFromId"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	detail, err := h.service.Create(r.Context(), req.Name, req.CloneFromID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "role.create", detail.ID, detail.Name)
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "role": toPayload(detail)})
}

type updateRequest struct {
	Name        *string  `json:"name"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	detail, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:        req.Name,
		Permissions: req.Permissions,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "role.update", detail.ID, detail.Name)
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "role": toPayload(detail)})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	fallbackID, err := h.service.Delete(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "role.delete", id, fmt.Sprintf("reassigned to role %d", fallbackID))
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "reassignedToRoleId": fallbackID})
}

func (h *Handler) recordAudit(r *http.Request, action string, entityID int64, detail string) {
	actor, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		return
	}
	h.auditor.Record(r.Context(), audit.Event{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "role",
		EntityID: entityID,
		Detail:   detail,
	})
}
