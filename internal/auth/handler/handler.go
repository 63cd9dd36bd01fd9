package handler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shelterhub/internal/auth/models"
	dErrors "shelterhub/pkg/domain-errors"
	"shelterhub/pkg/platform/httputil"
	authmw "shelterhub/pkg/platform/middleware/auth"
	request "shelterhub/pkg/platform/middleware/request"
)

// Service defines the credential operations exposed over HTTP.
type Service interface {
	Login(ctx context.Context, username, password string) (*models.TokenResult, error)
	Revoke(ctx context.Context, credential string) error
}

// Handler serves the token endpoints.
type Handler struct {
	auth    Service
	logger  *slog.Logger
	limiter func(http.Handler) http.Handler
}

// New creates a token Handler. limiter may be nil.
func New(auth Service, logger *slog.Logger, limiter func(http.Handler) http.Handler) *Handler {
	return &Handler{auth: auth, logger: logger, limiter: limiter}
}

// Register registers the token routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter)
		}
		r.Post("/token", h.handleToken)
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireBearer(h.logger))
		r.Post("/token/revoke", h.handleRevoke)
	})
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleToken accepts either an OAuth2-style form post or a JSON body.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, err := decodeTokenRequest(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid token request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "failed to issue token",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.auth.Revoke(ctx, authmw.Credential(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeTokenRequest(r *http.Request) (tokenRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req tokenRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			return tokenRequest{}, err
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return tokenRequest{}, dErrors.Wrap(err, dErrors.CodeValidation, "invalid form body")
	}
	return tokenRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}, nil
}
