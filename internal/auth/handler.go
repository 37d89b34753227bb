package auth

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ridepass/ridepass/internal/platform/httpx"
)

// CookieConfig describes how the session cookie is written.
type CookieConfig struct {
	Name   string
	MaxAge int
	Secure bool
}

// Handler wires HTTP endpoints for the session lifecycle.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	throttle  *LoginThrottle
	cookie    CookieConfig
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, throttle *LoginThrottle, cookie CookieConfig) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		throttle:  throttle,
		cookie:    cookie,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
	r.Post("/change-password", h.handleChangePassword)
}

// RawToken extracts the session token from the request cookie, if present.
func (h *Handler) RawToken(r *http.Request) string {
	cookie, err := r.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Success bool             `json:"success"`
	User    PrincipalSummary `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: username and password are required", httpx.ErrValidation))
		return
	}
	if h.throttle.Blocked(r.Context(), req.Username) {
		httpx.RespondError(w, fmt.Errorf("%w: try again later", httpx.ErrTooManyRequests))
		return
	}

	principal, rawToken, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.throttle.RecordFailure(r.Context(), req.Username)
		httpx.RespondError(w, err)
		return
	}
	h.throttle.Clear(r.Context(), req.Username)

	h.setSessionCookie(w, rawToken)
	httpx.JSON(w, http.StatusOK, loginResponse{Success: true, User: principal.Summary()})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if raw := h.RawToken(r); raw != "" {
		if err := h.service.RevokeToken(r.Context(), raw); err != nil {
			h.logger.Warn("revoke session", slog.Any("error", err))
		}
	}
	h.clearSessionCookie(w)
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "logged out"})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	principal, err := h.service.Validate(r.Context(), h.RawToken(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": principal.Summary()})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, err := h.service.Validate(r.Context(), h.RawToken(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: new password must be at least 8 characters", httpx.ErrValidation))
		return
	}
	if err := h.service.ChangePassword(r.Context(), principal.ID, req.OldPassword, req.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	// All sessions are revoked; the client must log in again.
	h.clearSessionCookie(w)
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "password changed"})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, rawToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    rawToken,
		Path:     "/",
		MaxAge:   h.cookie.MaxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
