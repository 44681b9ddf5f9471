package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/XiaoHuahai/group3/internal/article"
	"github.com/XiaoHuahai/group3/internal/auth"
	"github.com/XiaoHuahai/group3/internal/obs"
)

const serviceName = "evidence-api"

const defaultMaxBodyBytes = 1 << 20

type readinessChecker interface {
	Check(ctx context.Context) error
}

// ReadyProbe pings the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the identity and article services.
type API struct {
	mux       *http.ServeMux
	auth      *auth.Service
	articles  *article.Service
	readiness readinessChecker
	version   string
	log       *zap.Logger
	origins   []string
	maxBody   int64
}

// Option configures API.
type Option func(*API)

// WithLogger sets the request and error logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *API) {
		if log != nil {
			a.log = log
		}
	}
}

// WithAllowedOrigins sets the CORS allow list.
func WithAllowedOrigins(origins []string) Option {
	return func(a *API) {
		a.origins = append([]string(nil), origins...)
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBody = n
		}
	}
}

func New(users *auth.Service, articles *article.Service, rp readinessChecker, version string, opts ...Option) *API {
	if rp == nil {
		rp = ReadyProbe{}
	}
	a := &API{
		mux:       http.NewServeMux(),
		auth:      users,
		articles:  articles,
		readiness: rp,
		version:   version,
		log:       zap.NewNop(),
		maxBody:   defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.routes()
	return a
}

func (a *API) routes() {
	// health/ready
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReady)
	a.mux.Handle("GET /metrics", obs.Handler())

	// identity
	a.mux.HandleFunc("POST /auth/register", a.handleRegister)
	a.mux.HandleFunc("POST /auth/login", a.handleLogin)
	a.mux.HandleFunc("GET /stats/users", a.handleUserStats)
	a.mux.HandleFunc("GET /users", a.handleListUsers)
	a.mux.HandleFunc("GET /users/{id}", a.handleGetUser)
	a.mux.HandleFunc("PATCH /users/{id}/roles", a.handleUpdateRoles)

	// articles
	a.mux.HandleFunc("POST /articles/submit", a.handleSubmit)
	a.mux.HandleFunc("GET /articles/mine", a.handleMine)
	a.mux.HandleFunc("GET /articles/moderation/pending", a.handlePendingModeration)
	a.mux.HandleFunc("PATCH /articles/{id}/moderate", a.handleModerate)
	a.mux.HandleFunc("GET /articles/analysis/pending", a.handlePendingAnalysis)
	a.mux.HandleFunc("PATCH /articles/{id}/analysis", a.handleRecordAnalysis)
	a.mux.HandleFunc("GET /articles/search", a.handleSearch)
	a.mux.HandleFunc("GET /articles/search/debug", a.handleSearchDebug)
	a.mux.HandleFunc("GET /articles/{id}", a.handleGetArticle)
	a.mux.HandleFunc("PATCH /articles/{id}", a.handleUpdateArticle)
	a.mux.HandleFunc("DELETE /articles/{id}", a.handleDeleteArticle)
}

// Handler returns the mux wrapped in the middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.withPrincipal(a.mux)
	h = obs.Instrument(h)
	h = MaxBodyBytes(h, a.maxBody)
	h = SecurityHeaders(h)
	h = CORS(a.origins)(h)
	h = LoggingJSON(a.log)(h)
	return RequestID(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.readiness.Check(ctx); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}
