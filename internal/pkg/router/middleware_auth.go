package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/jwt"
)

// middlewareAuthentication requires a bearer access token everywhere except
// the public routes: the login handshake, which runs before the subject has
// a token, and the identity provider hooks, which carry a shared secret.
func middlewareAuthentication(verifier jwt.JWT, public routeSet) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public.has(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeError(w, errAuthRequired)
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				writeError(w, goerror.NewBusiness("Invalid or expired token", goerror.CodeUnauthorized))
				return
			}

			ctx := jwt.SetAuth(r.Context(), claims)
			ctx = instrument.SetSubjectID(ctx, claims.SubjectID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
