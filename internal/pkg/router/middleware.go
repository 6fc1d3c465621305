package router

import (
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/jwt"
)

// Middleware wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Chain applies mws so that the first one is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

var (
	errAuthRequired  = goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	errNotPrivileged = goerror.NewBusiness("Insufficient privileges", goerror.CodeForbidden)
)

// Privileged rejects callers the Authorizer does not recognise as administrators.
// It must run after authentication.
func (r *Router) Privileged() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			clm := jwt.GetAuth(req.Context())
			switch {
			case clm == nil:
				writeError(w, errAuthRequired)
				return
			case r.authorizer == nil:
				writeError(w, errNotPrivileged)
				return
			}

			ok, err := r.authorizer.IsPrivileged(req.Context(), clm.SubjectID())
			if err != nil {
				slog.ErrorContext(req.Context(), "failed to evaluate privilege", "subject_id", clm.SubjectID(), "error", err)
				writeError(w, goerror.NewServer(err))
				return
			}
			if !ok {
				writeError(w, errNotPrivileged)
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}
