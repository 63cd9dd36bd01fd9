package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "shelterhub/pkg/domain-errors"
	"shelterhub/pkg/platform/httputil"
	request "shelterhub/pkg/platform/middleware/request"
)

type contextKeyCredential struct{}

// ContextKeyCredential is exported for tests that build contexts by hand.
var ContextKeyCredential = contextKeyCredential{}

// Credential returns the raw bearer token captured by RequireBearer.
func Credential(ctx context.Context) string {
	cred, _ := ctx.Value(ContextKeyCredential).(string)
	return cred
}

// WithCredential injects a bearer token into a context.
func WithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, ContextKeyCredential, credential)
}

// BearerToken extracts the token from an Authorization header. Browsers cannot
// set headers on WebSocket upgrades, so the access_token query parameter is
// accepted as a fallback when allowQuery is set.
func BearerToken(r *http.Request, allowQuery bool) (string, bool) {
	const bearerPrefix = "Bearer "
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok && after != "" {
		return after, true
	}
	if allowQuery {
		if tok := r.URL.Query().Get("access_token"); tok != "" {
			return tok, true
		}
	}
	return "", false
}

// RequireBearer rejects requests without a bearer token. Verification happens
// downstream where the principal is resolved.
func RequireBearer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r, false)
			if !ok {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidCredential, "missing or invalid Authorization header"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), token)))
		})
	}
}
