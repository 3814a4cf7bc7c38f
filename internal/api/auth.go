package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCConfig holds OIDC authentication settings for the advisor endpoints.
type OIDCConfig struct {
	IssuerURL string
	Audience  string
	Enabled   bool
}

type contextKey string

const (
	ctxAdvisorID    contextKey = "advisor_id"
	ctxAdvisorEmail contextKey = "advisor_email"
)

// AdvisorFromContext returns the authenticated advisor id, or "" when the
// request was not authenticated.
func AdvisorFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxAdvisorID).(string)
	return v
}

// AdvisorEmailFromContext returns the authenticated advisor email.
func AdvisorEmailFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxAdvisorEmail).(string)
	return v
}

// oidcAuth returns middleware that verifies JWT Bearer tokens using OIDC discovery.
func oidcAuth(provider *oidc.Provider, audience string) func(http.Handler) http.Handler {
	verifier := provider.Verifier(&oidc.Config{ClientID: audience})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
				return
			}

			token, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token: "+err.Error())
				return
			}

			var claims struct {
				Sub   string `json:"sub"`
				Email string `json:"email"`
			}
			if err := token.Claims(&claims); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			ctx := r.Context()
			advisorID := claims.Sub
			if advisorID == "" {
				advisorID = claims.Email
			}
			if advisorID != "" {
				ctx = context.WithValue(ctx, ctxAdvisorID, advisorID)
			}
			if claims.Email != "" {
				ctx = context.WithValue(ctx, ctxAdvisorEmail, claims.Email)
			}
			slog.Debug("advisor authenticated", "advisor", advisorID, "path", r.URL.Path)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
