package chi

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/esmem/internal/domain"
)

// exemptPaths are routes that bypass authentication.
var exemptPaths = map[string]struct{}{
	"/metrics": {},
}

const apiKeyScheme = "apikey"

// APIKeyAuthMiddleware returns a middleware that validates "Authorization: ApiKey <key>" headers.
// If apiKeys is empty, authentication is disabled (pass-through).
func APIKeyAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				rejectUnauthorized(w, "missing authentication credentials for REST request ["+r.URL.Path+"]")
				return
			}

			scheme, token, _ := strings.Cut(auth, " ")
			if !strings.EqualFold(scheme, apiKeyScheme) {
				rejectUnauthorized(w, "authorization header must use the ApiKey scheme")
				return
			}

			if _, ok := validKeys[strings.TrimSpace(token)]; !ok {
				rejectUnauthorized(w, "unable to authenticate with provided credentials")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectUnauthorized(w http.ResponseWriter, reason string) {
	se, _ := domain.NewUnauthorized(reason).(*domain.StatusError)
	w.Header().Set("WWW-Authenticate", "ApiKey")
	writeJSON(w, se.Status, errorBody(se))
}
