package delivery

import (
	"net/http"
	"strings"

	"github.com/Vovarama1992/voice_cascade/internal/ports"
)

// AuthMiddleware пропускает только запросы с валидным Bearer токеном.
func AuthMiddleware(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if ok, err := auth.ValidateToken(r.Context(), token); err != nil || !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
