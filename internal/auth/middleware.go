package auth

import (
	"net/http"
	"strings"
	"time"

	"parkeasy/internal/models"

	"gorm.io/gorm"
)

// JWTAuth verifies the bearer token, its session row and that the account is
// still usable, then stores the claims on the request context.
func JWTAuth(db *gorm.DB, signer *Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := signer.Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := r.Context()
			var sess models.Session
			if claims.JWTID == "" || db.WithContext(ctx).First(&sess, "jti = ?", claims.JWTID).Error != nil {
				http.Error(w, "session not found", http.StatusUnauthorized)
				return
			}
			if sess.RevokedAt != nil || time.Now().After(sess.ExpiresAt) {
				http.Error(w, "session expired/revoked", http.StatusUnauthorized)
				return
			}
			var u models.User
			if err := db.WithContext(ctx).Select("id", "role", "is_suspended", "suspension_reason").First(&u, "id = ?", claims.Subject).Error; err != nil {
				http.Error(w, "account not found", http.StatusUnauthorized)
				return
			}
			if u.IsSuspended {
				http.Error(w, (&models.SuspendedError{Reason: u.SuspensionReason}).Error(), http.StatusForbidden)
				return
			}
			// role may have changed since the token was issued
			claims.Role = u.Role
			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Authorize(FromContext(r.Context()), roles...) != Allow {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
