package broadcast

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	authmodels "shelterhub/internal/auth/models"
	dErrors "shelterhub/pkg/domain-errors"
	"shelterhub/pkg/platform/httputil"
	authmw "shelterhub/pkg/platform/middleware/auth"
)

// Resolver turns a bearer credential into a principal.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*authmodels.Principal, error)
}

// HandlerConfig controls who may subscribe.
type HandlerConfig struct {
	RequireToken   bool
	AllowedOrigins []string
	SendBuffer     int
}

// Handler upgrades subscribers onto the hub.
type Handler struct {
	hub      *Hub
	resolver Resolver
	cfg      HandlerConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHandler(hub *Hub, resolver Resolver, cfg HandlerConfig, logger *slog.Logger) *Handler {
	h := &Handler{
		hub:      hub,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/ws/shelters", h.HandleSubscribe)
}

// HandleSubscribe upgrades the connection and blocks until it closes.
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cfg.RequireToken {
		token, ok := authmw.BearerToken(r, true)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidCredential, "a token is required to subscribe"))
			return
		}
		if _, err := h.resolver.Resolve(ctx, token); err != nil {
			h.logger.WarnContext(ctx, "rejected websocket subscriber", "error", err)
			httputil.WriteError(w, err)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.DebugContext(ctx, "websocket upgrade failed", "error", err)
		return
	}
	client := NewClient(uuid.NewString(), conn, h.hub, h.cfg.SendBuffer, h.logger)
	client.Serve()
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 || slices.Contains(h.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin)
}
