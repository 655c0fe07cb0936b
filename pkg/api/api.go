// Package api exposes the bridge orchestrator over HTTP. All routes
// except the session handshake and health check require a session token.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/mjkid221/cctp-bridge/pkg/app/http"
	"github.com/mjkid221/cctp-bridge/pkg/auth"
	"github.com/mjkid221/cctp-bridge/pkg/chains"
	"github.com/mjkid221/cctp-bridge/pkg/push"
	"github.com/mjkid221/cctp-bridge/pkg/service"
	"github.com/mjkid221/cctp-bridge/pkg/store"
)

const (
	defaultRequestTimeout = 120 * time.Second
	// Standard-speed attestations settle in roughly fifteen minutes on
	// mainnet; leave headroom.
	transferTimeout = 30 * time.Minute
)

// Handler carries the dependencies shared by all HTTP endpoints.
type Handler struct {
	svc      *service.Service
	shared   *store.Store
	registry *chains.Registry
	issuer   *auth.SessionIssuer
	hub      *push.Hub
	validate *validator.Validate
	logger   *zap.Logger
}

// Options configures the router.
type Options struct {
	Service        *service.Service
	Shared         *store.Store
	Registry       *chains.Registry
	Issuer         *auth.SessionIssuer
	Hub            *push.Hub
	MetricsEnabled bool
	Logger         *zap.Logger
}

// NewRouter builds the chi router with the full endpoint surface.
func NewRouter(opts Options) chi.Router {
	h := &Handler{
		svc:      opts.Service,
		shared:   opts.Shared,
		registry: opts.Registry,
		issuer:   opts.Issuer,
		hub:      opts.Hub,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", apphttp.HandleError(h.createSession))
		r.Get("/chains", apphttp.HandleError(h.listChains))

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(opts.Issuer))

			// Transfer execution holds the response open until the mint
			// settles, which can take many minutes at standard speed.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(transferTimeout))
				r.Post("/transfers", apphttp.HandleError(h.bridge))
				r.Post("/transactions/{id}/retry", apphttp.HandleError(h.retryTransaction))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(defaultRequestTimeout))

				r.Get("/balance/{chainID}", apphttp.HandleError(h.getBalance))
				r.Post("/estimate", apphttp.HandleError(h.estimate))
				r.Get("/transactions", apphttp.HandleError(h.listTransactions))
				r.Get("/transactions/current", apphttp.HandleError(h.currentTransaction))
				r.Get("/transactions/{id}", apphttp.HandleError(h.getTransaction))
				r.Post("/transactions/{id}/cancel", apphttp.HandleError(h.cancelTransaction))
				r.Get("/stats", apphttp.HandleError(h.getStats))

				r.Get("/preferences", apphttp.HandleError(h.getPreferences))
				r.Put("/preferences", apphttp.HandleError(h.savePreferences))

				r.Get("/windows", apphttp.HandleError(h.listWindows))
				r.Post("/windows/{id}/open", apphttp.HandleError(h.openWindow))
				r.Post("/windows/{id}/focus", apphttp.HandleError(h.focusWindow))
				r.Post("/windows/{id}/move", apphttp.HandleError(h.moveWindow))
				r.Post("/windows/{id}/minimize", apphttp.HandleError(h.minimizeWindow))
				r.Delete("/windows/{id}", apphttp.HandleError(h.closeWindow))
			})

			// No timeout on the socket: connections stay open for the
			// session's lifetime.
			r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
				h.hub.HandleConnect(w, r)
			})
		})
	})

	return r
}
