package api

import (
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/itsatony/w4b_v3/server/clima/api/docs"
	"github.com/itsatony/w4b_v3/server/clima/api/resources"
	"github.com/itsatony/w4b_v3/server/clima/internal/config"
	"github.com/itsatony/w4b_v3/server/clima/internal/service"
)

type Router struct {
	router    *mux.Router
	handler   http.Handler
	resources *resources.Resources
	live      http.Handler
	cfg       config.ServerConfig
}

// NewRouter wires the resources, the live websocket endpoint and, when
// configured, the static dashboard.
func NewRouter(svc *service.Service, live http.Handler, metrics http.Handler, cfg config.ServerConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: resources.NewResources(svc),
		live:      live,
		cfg:       cfg,
	}
	if metrics != nil {
		r.resources.SetMetrics(metrics.ServeHTTP)
	}

	r.setupRoutes()
	r.handler = r.middleware(r.router)
	return r
}

func (r *Router) setupRoutes() {
	// Reports
	r.router.HandleFunc("/generate-report", r.resources.Reports.GenerateReport).Methods(http.MethodPost)
	r.router.HandleFunc("/latest-report", r.resources.Reports.LatestReport).Methods(http.MethodGet)
	r.router.HandleFunc("/reports/{date}", r.resources.Reports.GetReport).Methods(http.MethodGet)

	// Readings
	r.router.HandleFunc("/readings", r.resources.Readings.ListReadings).Methods(http.MethodGet)
	r.router.HandleFunc("/latest-readings", r.resources.Readings.LatestReadings).Methods(http.MethodGet)
	if r.live != nil {
		r.router.Handle("/ws", r.live)
	}

	// System
	v1 := r.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/health", r.resources.System.HealthCheck).Methods(http.MethodGet)
	r.router.HandleFunc("/metrics", r.resources.Metrics).Methods(http.MethodGet)
	r.router.HandleFunc("/swagger/doc.json", r.resources.System.SwaggerDoc).Methods(http.MethodGet)

	// Dashboard
	if r.cfg.StaticDir != "" {
		r.router.PathPrefix("/").Handler(http.FileServer(http.Dir(r.cfg.StaticDir))).Methods(http.MethodGet)
	}
}

func (r *Router) middleware(next http.Handler) http.Handler {
	origins := r.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(next)
	h = handlers.CombinedLoggingHandler(os.Stdout, h)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
