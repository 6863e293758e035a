package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"pennywise.org/internal/auth"
	"pennywise.org/internal/finance"
	"pennywise.org/internal/obs"
)

// ReadyProbe pings the backing store for the health endpoint.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. It owns the route table and the middleware chain;
// all domain decisions live in the auth service and the finance store.
type API struct {
	mux     *http.ServeMux
	auth    *auth.Service
	finance finance.Store
	probe   ReadyProbe
	version string

	rateBurst     int
	ratePerSecond int
	secureCookies bool
}

// Option configures API.
type Option func(*API)

// WithRateLimit sets the per-IP rate limit applied to every request.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		a.rateBurst = burst
		a.ratePerSecond = perSecond
	}
}

// WithSecureCookies marks session cookies Secure. Enable behind TLS.
func WithSecureCookies(secure bool) Option {
	return func(a *API) {
		a.secureCookies = secure
	}
}

func New(authSvc *auth.Service, store finance.Store, probe ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:           http.NewServeMux(),
		auth:          authSvc,
		finance:       store,
		probe:         probe,
		version:       version,
		rateBurst:     20,
		ratePerSecond: 10,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.mux.HandleFunc("/health", a.handleHealth)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/activate", a.handleActivate)
	a.mux.HandleFunc("/api/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/api/auth/logout", a.handleLogout)

	a.mux.HandleFunc("/api/budgets", a.handleBudgetsCollection)
	a.mux.HandleFunc("/api/budgets/", a.handleBudgetResource)

	a.mux.HandleFunc("/api/transactions", a.handleTransactionsCollection)
	a.mux.HandleFunc("/api/transactions/inRange", a.handleTransactionsInRange)
	a.mux.HandleFunc("/api/transactions/", a.handleTransactionResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})

	return a
}

// Handler returns the fully wrapped http.Handler.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = Logging(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSecond)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.probe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "OK",
		"service": "pennywise-api",
		"version": a.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
