package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/pixcheckout/api/responses"
	"github.com/angelmondragon/pixcheckout/internal/identity"
	pkgAuth "github.com/angelmondragon/pixcheckout/pkg/auth"
	pkgerrors "github.com/angelmondragon/pixcheckout/pkg/errors"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
)

// TokenVerifier is satisfied by *auth.Tokens.
type TokenVerifier interface {
	Verify(raw string) (*pkgAuth.AccessTokenClaims, error)
}

// OptionalAuth seeds the request context with the identity from a bearer token.
// Requests without credentials continue anonymously; malformed or invalid
// tokens are rejected.
func OptionalAuth(verifier TokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			if verifier == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token verification unavailable"))
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			id := identity.FromClaims(claims)
			ctx := WithIdentity(r.Context(), id)
			if logg != nil && id != nil {
				ctx = logg.WithUserID(ctx, id.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
