package app

import (
	"database/sql"
	"net/http"
	"time"

	"testdesk/internal/app/apiresp"
	"testdesk/internal/app/observability"
	"testdesk/internal/ingest"
	"testdesk/internal/questiondoc"
	"testdesk/internal/testapi"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the ingest API. db may be nil, in which case import history
// is not kept.
func NewRouter(cfg Config, db *sql.DB) http.Handler {
	collector := observability.NewCollector(db)

	var store ingest.Store
	if db != nil {
		store = ingest.NewSQLStore(db)
	}
	svc := ingest.NewService(ingest.ServiceConfig{
		Parser:     questiondoc.New(cfg.ParserConfig()),
		Categories: cfg.Categories,
		Store:      store,
		Client:     testapi.NewClient(cfg.TestAPIConfig()),
		Observer:   collector,
	})
	return newRouter(cfg, collector, ingest.NewHandler(svc, cfg.UploadMaxBytes))
}

func newRouter(cfg Config, collector *observability.Collector, ingestHandler *ingest.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(collector.Middleware)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	importLimiter := NewIPRateLimiter(cfg.ImportRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		apiresp.WriteOK(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/categories", ingestHandler.Categories)
		api.Get("/imports", ingestHandler.ListImports)
		api.Get("/imports/{id}", ingestHandler.GetImport)

		api.Group(func(limited chi.Router) {
			limited.Use(RateLimitMiddleware(importLimiter))
			limited.Post("/imports/preview", ingestHandler.Preview)
			limited.Post("/tests", ingestHandler.CreateTest)
			limited.Post("/tests/upload", ingestHandler.UploadTest)
		})
	})

	return r
}
