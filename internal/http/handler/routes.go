package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paperapi/internal/http/middleware"
	"paperapi/internal/query"
	"paperapi/internal/service"
)

// Deps are the collaborators the HTTP surface is wired to.
type Deps struct {
	DB         Pinger
	Papers     service.PaperService
	Auth       service.AuthService
	Tokens     middleware.TokenVerifier
	AdminEmail string
	// Gatherer backs /metrics; nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse, call the service, map errors.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	api.Get("/papers", ListPapers(d.Papers, query.DefaultPublicLimit))
	api.Get("/papers/:id", GetPaper(d.Papers))
	api.Get("/papers/:id/download", DownloadPaper(d.Papers))

	// The gate is attached per route so /api/admin/login stays public.
	requireAdmin := middleware.RequireAdmin(d.Tokens, d.AdminEmail)
	api.Get("/auth/user", requireAdmin, CurrentUser(d.Auth))

	admin := api.Group("/admin")
	admin.Post("/login", Login(d.Auth))
	admin.Get("/papers", requireAdmin, ListPapers(d.Papers, query.DefaultAdminLimit))
	admin.Post("/papers", requireAdmin, UploadPaper(d.Papers))
	admin.Delete("/papers/:id", requireAdmin, DeletePaper(d.Papers))
	admin.Get("/stats", requireAdmin, AdminStats(d.Papers))
}
