package middleware

import (
	"net/http"
	"strings"

	apierrors "flowpulse/internal/errors"
	"flowpulse/internal/infrastructure"
)

// maxOwnerIDLen caps the header value accepted as an owner id
const maxOwnerIDLen = 128

// OwnerID reads the authenticated owner id set by the upstream proxy in
// header and stores it in the request context. Requests without it get 401.
func OwnerID(header string, errorHandler *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := strings.TrimSpace(r.Header.Get(header))
			if owner == "" {
				errorHandler.HandleError(w, r, apierrors.ErrMissingOwner)
				return
			}
			if len(owner) > maxOwnerIDLen {
				errorHandler.HandleError(w, r, apierrors.ErrValidation("owner_id", "owner id exceeds 128 characters"))
				return
			}

			ctx := infrastructure.WithOwnerID(r.Context(), owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Owner returns the owner id stored by OwnerID
func Owner(r *http.Request) string {
	return infrastructure.GetOwnerID(r.Context())
}
