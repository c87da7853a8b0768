// Package httpapi is the HTTP transport for the storeops service. Handlers
// coerce request shapes and translate domain errors into status codes; all
// business rules live in the track package.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"storeops.dev/internal/auth"
	"storeops.dev/internal/obs"
	"storeops.dev/internal/track"
)

// ReadyProbe reports readiness, pinging the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	svc        track.Service
	issuer     *auth.Issuer
	readyProbe ReadyProbe
	version    string

	corsOrigins  []string
	maxBodyBytes int64
	rateBurst    int
	ratePerSec   int
}

// Option configures the API.
type Option func(*API)

// WithCORSOrigins sets the allowed cross-origin hosts.
func WithCORSOrigins(origins []string) Option {
	return func(a *API) { a.corsOrigins = origins }
}

// WithMaxBodyBytes overrides the request body limit.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// WithRateLimit overrides the per-IP limiter settings.
func WithRateLimit(burst, perSec int) Option {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSec > 0 {
			a.ratePerSec = perSec
		}
	}
}

func New(svc track.Service, issuer *auth.Issuer, rp ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:          http.NewServeMux(),
		svc:          svc,
		issuer:       issuer,
		readyProbe:   rp,
		version:      version,
		maxBodyBytes: 1 << 20,
		rateBurst:    20,
		ratePerSec:   10,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// store accounts
	a.mux.HandleFunc("/api/stores/register", a.handleRegister)
	a.mux.HandleFunc("/api/stores/login", a.handleLogin)
	a.mux.HandleFunc("/api/stores/me", a.handleMe)

	// records
	a.mux.HandleFunc("/api/temperatures", a.handleTemperatures)
	a.mux.HandleFunc("/api/tips", a.handleTips)
	a.mux.HandleFunc("/api/out-of-stock", a.handleOutOfStockCollection)
	a.mux.HandleFunc("/api/out-of-stock/", a.handleOutOfStockResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h, a.corsOrigins)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}
