package auth

import (
	"net/http"
	"strings"

	apperrors "github.com/mjkid221/cctp-bridge/pkg/app/errors"
	apphttp "github.com/mjkid221/cctp-bridge/pkg/app/http"
)

// Middleware validates the bearer session token and injects the wallet
// address into the request context.
func Middleware(issuer *SessionIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				apphttp.DefaultErrorHandler(w,
					apperrors.UnAuthorizedError(ErrTokenInvalid, "missing bearer token"))
				return
			}

			address, err := issuer.Validate(token)
			if err != nil {
				apphttp.DefaultErrorHandler(w,
					apperrors.UnAuthorizedError(err, err.Error()))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAddress(r.Context(), address)))
		})
	}
}
