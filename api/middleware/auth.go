package middleware

import (
	"net/http"
	"strings"

	"github.com/landlordheaven/heaven-backend/api/responses"
	pkgAuth "github.com/landlordheaven/heaven-backend/pkg/auth"
	"github.com/landlordheaven/heaven-backend/pkg/config"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
)

const roleLandlord = "landlord"

// Auth accepts a Supabase access token in "Authorization: Bearer <jwt>" and
// puts the resulting Actor on the request context. Admin is decided by the
// token's role claim or the configured email allowlist.
func Auth(cfg config.SupabaseConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reject := func(err error, msg string) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="landlordheaven"`)
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
			}

			token, ok := bearerToken(r)
			if !ok {
				reject(nil, "missing credentials")
				return
			}
			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				reject(err, "invalid token")
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				reject(err, "invalid subject")
				return
			}

			actor := pkgAuth.Actor{UserID: userID, Email: claims.Email, Admin: pkgAuth.IsAdmin(cfg, claims)}
			ctx = WithActor(ctx, actor)
			if logg != nil {
				role := roleLandlord
				if actor.Admin {
					role = pkgAuth.RoleAdmin
				}
				ctx = logg.WithActorRole(logg.WithUserID(ctx, userID.String()), role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
