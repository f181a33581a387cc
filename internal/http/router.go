package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hiretrack/internal/domain/user"
	"hiretrack/internal/http/handlers"
	httpmw "hiretrack/internal/http/middleware"
	"hiretrack/internal/metrics"
)

type RouterDependencies struct {
	ApplicationHandler *handlers.ApplicationHandler
	HealthHandler      *handlers.HealthHandler
	MetricsHandler     http.Handler
	AuthMiddleware     *httpmw.AuthMiddleware
	Metrics            *metrics.Collector
	Logger             zerolog.Logger
	Limiter            httpmw.Limiter
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	RequestTimeout     time.Duration
	MaxBodyBytes       int64
}

type Router struct {
	deps    RouterDependencies
	handler http.Handler

	submit      http.Handler
	changeStage http.Handler
}

var candidateOnly = []user.Role{user.RoleCandidate}

func NewRouter(deps RouterDependencies) http.Handler {
	r := &Router{deps: deps}
	r.submit = httpmw.RequireRole(candidateOnly...)(http.HandlerFunc(deps.ApplicationHandler.Apply))
	r.changeStage = httpmw.RequireRole(user.StageEditors...)(http.HandlerFunc(deps.ApplicationHandler.ChangeStage))
	r.handler = httpmw.Chain(r.baseHandler(),
		httpmw.RequestID,
		httpmw.Logging(deps.Logger),
		httpmw.Recover,
		httpmw.Metrics(deps.Metrics),
		httpmw.RateLimit(deps.Limiter, func(req *http.Request) string { return "ip:" + httpmw.ClientIP(req) }, deps.RateLimitRequests, deps.RateLimitWindow),
		httpmw.BodyLimit(deps.MaxBodyBytes),
		httpmw.Timeout(deps.RequestTimeout),
	)
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) baseHandler() http.Handler {
	protected := r.deps.AuthMiddleware.Authenticate(http.HandlerFunc(r.handleProtected))
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path
		switch {
		case req.Method == http.MethodGet && path == "/health":
			r.deps.HealthHandler.Get(w, req)
			return
		case req.Method == http.MethodGet && path == "/metrics":
			r.deps.MetricsHandler.ServeHTTP(w, req)
			return
		case path == "/applications" || strings.HasPrefix(path, "/applications/"):
			protected.ServeHTTP(w, req)
			return
		}
		http.NotFound(w, req)
	})
}

func (r *Router) handleProtected(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimSuffix(req.URL.Path, "/")
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	h := r.deps.ApplicationHandler

	switch {
	case req.Method == http.MethodPost && len(segments) == 1:
		r.submit.ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && len(segments) == 2:
		h.Get(w, req)
		return
	case req.Method == http.MethodPatch && len(segments) == 3 && segments[2] == "stage":
		r.changeStage.ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && len(segments) == 3 && segments[2] == "history":
		h.History(w, req)
		return
	case req.Method == http.MethodGet && len(segments) == 3 && segments[2] == "next-stages":
		h.NextStages(w, req)
		return
	}

	http.NotFound(w, req)
}
