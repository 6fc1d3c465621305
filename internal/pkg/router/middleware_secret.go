package router

import (
	"crypto/subtle"
	"net/http"
)

// HeaderIdentityProviderSecret carries the secret shared with the identity provider.
const HeaderIdentityProviderSecret = "X-Identity-Provider-Secret"

// SharedSecret guards machine-to-machine routes, such as identity provider
// hooks, with a static secret carried in header. An empty secret rejects
// every request.
func SharedSecret(header string, secret []byte) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(header))
			if len(secret) == 0 || subtle.ConstantTimeCompare(got, secret) != 1 {
				writeError(w, errAuthRequired)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
