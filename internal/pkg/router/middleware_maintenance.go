package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/ktvs/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed under
// app.maintenance.endpoints. Entries are either a route pattern, which blocks
// every method, or "METHOD pattern", e.g. "POST /api/v1/qrcodes".
func middlewareMaintenance(cfg config.Config) Middleware {
	blocked := make(map[string]struct{})
	var retryAfter int
	if cfg != nil {
		for _, e := range cfg.GetArray("app.maintenance.endpoints") {
			if e = strings.Join(strings.Fields(e), " "); e != "" {
				blocked[e] = struct{}{}
			}
		}
		retryAfter = int(cfg.GetSecond("app.maintenance.retry_after_seconds").Seconds())
	}

	return func(next http.Handler) http.Handler {
		if len(blocked) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			_, all := blocked[route]
			_, method := blocked[r.Method+" "+route]
			if !all && !method {
				next.ServeHTTP(w, r)
				return
			}

			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
			writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
		})
	}
}
