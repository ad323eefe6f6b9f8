// Package app assembles the HTTP API from the feature modules.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/EmpoweredVote/fairlending-api/internal/batch"
	"github.com/EmpoweredVote/fairlending-api/internal/census"
	"github.com/EmpoweredVote/fairlending-api/internal/config"
	"github.com/EmpoweredVote/fairlending-api/internal/db"
	"github.com/EmpoweredVote/fairlending-api/internal/geo"
	"github.com/EmpoweredVote/fairlending-api/internal/hmda"
	"github.com/EmpoweredVote/fairlending-api/internal/httputil"
	"github.com/EmpoweredVote/fairlending-api/internal/institutions"
	"github.com/EmpoweredVote/fairlending-api/internal/logging"
	"github.com/EmpoweredVote/fairlending-api/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services are the data sources behind the routes.
type Services struct {
	Geo          geo.Store
	Census       census.Store
	HMDA         hmda.Store
	Institutions institutions.Store
	Ping         func(context.Context) error
}

// ServicesFor backs every module with the database.
func ServicesFor(d *gorm.DB) Services {
	return Services{
		Geo:          geo.NewStore(d),
		Census:       census.NewStore(d),
		HMDA:         hmda.NewStore(d),
		Institutions: institutions.NewStore(d),
		Ping:         func(ctx context.Context) error { return db.Ping(ctx, d) },
	}
}

// Migrate runs every module's Init: schemas, PostGIS and tables.
func Migrate(d *gorm.DB, log *zap.Logger) error {
	steps := []struct {
		name string
		init func(*gorm.DB, *zap.Logger) error
	}{
		{"geo", geo.Init},
		{"census", census.Init},
		{"hmda", hmda.Init},
		{"institutions", institutions.Init},
	}
	for _, s := range steps {
		if err := s.init(d, logging.Module(log, s.name)); err != nil {
			return err
		}
	}
	return nil
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

// NewRouter builds the full API. reg receives the HTTP and Go runtime
// metrics and is served on /metrics.
func NewRouter(cfg config.Config, svc Services, log *zap.Logger, reg *prometheus.Registry) (http.Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}
	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	geoHandler := geo.NewHandler(svc.Geo, logging.Module(log, "geo"), geo.Options{
		SimplifyTolerance: cfg.SimplifyTolerance,
		TileMaxAge:        cfg.TileMaxAge,
	})
	censusHandler := census.NewHandler(svc.Census, logging.Module(log, "census"))
	hmdaHandler := hmda.NewHandler(svc.HMDA, logging.Module(log, "hmda"))
	instHandler := institutions.NewHandler(svc.Institutions, logging.Module(log, "institutions"))

	registry := batch.Registry{
		"minority":   censusHandler.RaceSummary,
		"loanVolume": hmdaHandler.LoanOriginations,
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logging.Module(log, "http")))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Handler)
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Handler)
	r.Use(chimw.Compress(5, "application/json"))

	r.Get("/", RootHandler)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/health", healthHandler(svc.Ping, log))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Mount("/census", census.SetupRoutes(censusHandler))
	r.Mount("/hmda", hmda.SetupRoutes(hmdaHandler))
	r.Mount("/shapes", geo.SetupRoutes(geoHandler))
	r.Mount("/institutions", institutions.SetupRoutes(instHandler))
	r.Get("/batch", batch.Handler(registry, logging.Module(log, "batch")))

	return r, nil
}

func healthHandler(ping func(context.Context) error, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if ping != nil {
			if err := ping(ctx); err != nil {
				log.Warn("health check failed", zap.Error(err))
				httputil.WriteJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		httputil.WriteJSON(w, map[string]string{"status": "healthy"})
	}
}
