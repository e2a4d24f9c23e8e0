package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apperrors "tokenauth/internal/errors"
	"tokenauth/internal/license"
	api "tokenauth/pkg/contracts/api/v1"
)

// ServerTimeLayout formats server_time in the status response
const ServerTimeLayout = "2006-01-02 15:04:05"

// TokenHandler serves the verification and token management endpoints
type TokenHandler struct {
	service    TokenService
	binder     *Binder
	errHandler *apperrors.ErrorHandler
	logger     *slog.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(service TokenService, errHandler *apperrors.ErrorHandler, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		service:    service,
		binder:     NewBinder(),
		errHandler: errHandler,
		logger:     logger.With(slog.String("handler", "token")),
	}
}

// Verify handles POST /api/verify for the desktop application
func (h *TokenHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyRequest
	if err := h.binder.Bind(w, r, &req); err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	verdict := h.service.Verify(r.Context(), license.ChannelDesktop, req.HWID)
	status, body := license.DesktopEncoding(verdict)

	render.Status(r, status)
	render.JSON(w, r, body)
}

// VerifyToken handles POST /verify-token for the browser extension. It
// always answers 200; an unreadable body counts as a missing token.
func (h *TokenHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyTokenRequest
	if err := h.binder.Bind(w, r, &req); err != nil {
		h.logger.DebugContext(r.Context(), "unreadable extension request", slog.String("error", err.Error()))
		req.Token = ""
	}

	verdict := h.service.Verify(r.Context(), license.ChannelExtension, req.Token)
	render.JSON(w, r, license.ExtensionEncoding(verdict))
}

// Register handles POST /api/register
func (h *TokenHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := h.binder.Bind(w, r, &req); err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Register(r.Context(), req.Token, req.Expires)
	if err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.RegisterResponse{
		Success: true,
		Message: "Token registered successfully",
		Expires: res.Expires,
	})
}

// Extend handles POST /api/extend
func (h *TokenHandler) Extend(w http.ResponseWriter, r *http.Request) {
	var req api.ExtendRequest
	if err := h.binder.Bind(w, r, &req); err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Extend(r.Context(), req.Token, req.Expires)
	if err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, api.ExtendResponse{
		Success:    true,
		Message:    "Token extended successfully",
		OldExpires: res.OldExpires,
		NewExpires: res.NewExpires,
	})
}

// Delete handles POST /api/delete
func (h *TokenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req api.DeleteRequest
	if err := h.binder.Bind(w, r, &req); err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), req.Token); err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, api.DeleteResponse{
		Success: true,
		Message: "Token deleted successfully",
	})
}

// Status handles GET /api/status
func (h *TokenHandler) Status(w http.ResponseWriter, r *http.Request) {
	report := h.service.Status(r.Context())

	render.JSON(w, r, api.StatusResponse{
		ServerStatus:  "online",
		TotalTokens:   report.Total,
		ActiveTokens:  report.Active,
		ExpiredTokens: report.Expired,
		ExpiringSoon:  report.ExpiringSoon,
		ServerTime:    report.ServerTime.Format(ServerTimeLayout),
	})
}

// Tokens handles GET /api/tokens
func (h *TokenHandler) Tokens(w http.ResponseWriter, r *http.Request) {
	entries := h.service.List(r.Context())

	tokens := make([]api.TokenInfo, 0, len(entries))
	for _, e := range entries {
		status := api.TokenStatusActive
		if e.Expired {
			status = api.TokenStatusExpired
		}
		tokens = append(tokens, api.TokenInfo{
			Token:         e.MaskedToken,
			Expires:       e.Expires,
			Status:        status,
			DaysRemaining: e.DaysRemaining,
		})
	}

	render.JSON(w, r, api.TokenListResponse{Tokens: tokens, Count: len(tokens)})
}

// Reload handles POST /api/reload
func (h *TokenHandler) Reload(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Reload(r.Context())
	if err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, api.ReloadResponse{Success: true, Count: count})
}
