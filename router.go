package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	httpSwagger "github.com/swaggo/http-swagger"
)

// routes wires middlewares and endpoints. CORS origins come from CORS_ORIGINS.
func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		ok(w, "logbook API is running", map[string]any{"time": a.now().UTC()})
	})

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Write(openapiYAML)
	})

	r.Mount("/swagger", httpSwagger.Handler(
		httpSwagger.URL("/api/openapi.yaml"),
	))

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", a.handleRegister)
		api.Post("/auth/login", a.handleLogin)
		api.Post("/auth/verify", a.handleVerify)

		// Lots are public so buyers can scan them.
		api.Get("/traceability/{seasonId}", a.handleTraceability)
		api.Get("/traceability/search/{lotCode}", a.handleTraceSearch)

		api.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware)
			pr.Get("/me", a.handleMe)

			pr.Route("/templates", func(tr chi.Router) {
				tr.Get("/", a.handleListTemplates)
				tr.Post("/", a.handleCreateTemplate)
				tr.Put("/{id}", a.handleUpdateTemplate)
				tr.Delete("/{id}", a.handleDeleteTemplate)
			})

			pr.Route("/seasons", func(sr chi.Router) {
				sr.Post("/", a.handleCreateSeason)
				sr.Get("/user", a.handleListSeasons)
				sr.Get("/daily/{seasonId}", a.handleDailyView)
				sr.Post("/hide-task", a.handleHideTask)
				sr.Delete("/{seasonId}", a.handleDeleteSeason)
			})

			pr.Route("/logbook", func(lr chi.Router) {
				lr.Post("/", a.handleCreateLog)
				lr.Get("/season/{seasonId}", a.handleSeasonLogs)
			})

			pr.Route("/materials", func(mr chi.Router) {
				mr.Get("/", a.handleListMaterials)
				mr.Post("/", a.handleCreateMaterial)
				mr.Get("/favorites", a.handleLoggedFavorites)
				mr.Get("/barcode/{barcode}", a.handleMaterialByBarcode)
				mr.Get("/suggested/{seasonId}/{taskName}", a.handleSuggestedMaterials)
				mr.Put("/{id}", a.handleUpdateMaterial)
				mr.Delete("/{id}", a.handleDeleteMaterial)
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Post("/fcm-token", a.handleFCMToken)
				ur.Post("/track-material-usage", a.handleTrackUsage)
				ur.Get("/favorite-materials", a.handleFavoriteMaterials)
			})

			pr.Route("/data", func(dr chi.Router) {
				dr.Get("/all", a.handleDataAll)
				dr.Get("/seasons", a.handleDataSeasons)
				dr.Get("/logs", a.handleDataLogs)
				dr.Get("/materials", a.handleDataMaterials)
				dr.Get("/templates", a.handleDataTemplates)
				dr.Get("/stats", a.handleStats)
				dr.Get("/export", a.handleExport)
				dr.Get("/export.xlsx", a.handleExportXLSX)
			})

			pr.Route("/integrity", func(ir chi.Router) {
				ir.Post("/record", a.handleIntegrityRecord)
				ir.Get("/verify/{logId}", a.handleIntegrityVerify)
				ir.Get("/trace/{seasonId}", a.handleIntegrityTrace)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusNotFound, "route not found")
	})
	return r
}
