package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"skinscan/docs"
	"skinscan/internal/http/middleware"
	"skinscan/internal/identity"
	"skinscan/internal/service"
)

// Deps are the collaborators the routes dispatch to.
type Deps struct {
	Prefix   string
	Auth     identity.Authenticator
	Users    service.UserService
	Images   service.ImageService
	Analysis service.AnalysisService
	Scans    service.ScanService
	// Ready checks the persistence backend; nil means always ready.
	Ready    func(context.Context) error
	Gatherer prometheus.Gatherer
	Log      zerolog.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Every API
// route except health and signup sits behind the Auth gate.
func RegisterRoutes(app *fiber.App, d Deps) {
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	app.Get("/swagger/*", swaggerUI(d.Prefix))
	app.Get("/healthz", LivenessProbe())
	app.Get("/readyz", ReadinessProbe(d.Ready))

	api := app.Group(d.Prefix)
	api.Get("/health", Health())
	api.Post("/signup", Signup(d.Users))

	auth := middleware.Auth(d.Auth, d.Log)
	api.Get("/user/:userId", auth, GetProfile(d.Users))
	api.Put("/user/:userId", auth, UpdateProfile(d.Users))
	api.Post("/upload-image", auth, UploadImage(d.Images))
	api.Post("/analyze", auth, Analyze(d.Analysis))
	api.Get("/scans/:userId", auth, ListScans(d.Scans))
	api.Delete("/scans/:scanId", auth, DeleteScan(d.Scans))
}

// swaggerUI serves the docs with host, scheme and base path taken from the request.
func swaggerUI(prefix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get(fiber.HeaderHost)
		docs.SwaggerInfo.Schemes = []string{scheme}
		docs.SwaggerInfo.BasePath = prefix

		return swagger.HandlerDefault(c)
	}
}
