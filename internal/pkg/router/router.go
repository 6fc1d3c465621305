// Package router is the HTTP layer: httprouter for matching, a fixed
// middleware chain, and handlers that return (response, error) instead of
// writing to the ResponseWriter themselves.
package router

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/jwt"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
)

// Authorizer answers the administrative privilege question for a subject.
type Authorizer interface {
	IsPrivileged(ctx context.Context, subjectID string) (bool, error)
}

// Handler returns the value to encode as data, or an error for writeError.
type Handler func(r *Request) (any, error)

type Config struct {
	Config     config.Config
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	Authorizer Authorizer
	// PublicEndpoints maps a method to route patterns reachable without a token.
	PublicEndpoints map[string][]string
}

type Router struct {
	hr         *httprouter.Router
	mws        []Middleware
	authorizer Authorizer
}

func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}
	hr.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, map[string]string{"message": "KTVS credential service"}, http.StatusOK)
	})
	hr.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	public := routeSet{http.MethodGet: {"/": {}, "/health": {}}}
	for method, paths := range cfg.PublicEndpoints {
		public.add(method, paths...)
	}

	return &Router{
		hr:         hr,
		authorizer: cfg.Authorizer,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareRequestContext(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareAuthentication(cfg.JWT, public),
		},
	}
}

// routeSet indexes route patterns by method.
type routeSet map[string]map[string]struct{}

func (s routeSet) add(method string, paths ...string) {
	if s[method] == nil {
		s[method] = make(map[string]struct{}, len(paths))
	}
	for _, p := range paths {
		s[method][p] = struct{}{}
	}
}

func (s routeSet) has(method, path string) bool {
	_, ok := s[method][path]
	return ok
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodGet, path, h, mws)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodPost, path, h, mws)
}

func (r *Router) PATCH(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodPatch, path, h, mws)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodDelete, path, h, mws)
}

// handle runs the router-wide chain first, then the route's own middleware.
func (r *Router) handle(method, path string, h Handler, mws []Middleware) {
	final := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err == nil {
			writeSuccess(w, resp)
			return
		}
		if rec, ok := w.(interface{ SetError(error) }); ok {
			rec.SetError(err)
		}
		writeError(w, err)
	})

	chain := make([]Middleware, 0, len(r.mws)+len(mws))
	chain = append(append(chain, r.mws...), mws...)
	r.hr.Handler(method, path, Chain(final, chain...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
