package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/hostelreview/hostelreview/internal/auth"
	"github.com/hostelreview/hostelreview/internal/config"
	"github.com/hostelreview/hostelreview/internal/handler"
	"github.com/hostelreview/hostelreview/internal/middleware"
	"github.com/hostelreview/hostelreview/internal/telemetry"
)

// routerDeps carries everything setupRouter mounts.
type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions *auth.SessionManager
	tracker  *telemetry.Tracker
	limiter  *rate.Limiter

	base      *handler.Handler
	health    *handler.HealthHandler
	metrics   http.Handler
	pages     *handler.PageHandler
	reviews   *handler.ReviewHandler
	speedtest *handler.SpeedTestHandler
	auth      *handler.AuthHandler
	images    *handler.ImageHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware. Session runs before Logger so access logs carry user_id.
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Session(d.sessions, d.logger))
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{HSTS: d.cfg.IsProduction()}))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(d.cfg.GetCORSAllowedOrigins())))

	// Health and metrics (no session required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Method(http.MethodGet, "/metrics", d.metrics)

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

		// Content pages. Only these count towards the trending page, so
		// probes, scrapes and unrouted paths never reach the tracker.
		r.Group(func(r chi.Router) {
			r.Use(middleware.PageViews(d.tracker))

			r.Get("/", d.pages.Home)
			r.Get("/hostels/{id}", d.pages.Hostel)
			r.Get("/hostel/{id}", d.pages.Hostel)
			r.Get("/floors/{floorID}", d.pages.Floor)
			r.Get("/floor/{floorID}", d.pages.Floor)
			r.Get("/review/{floorID}", d.pages.ReviewForm)
		})

		// Reviews
		r.Post("/reviews", d.reviews.Submit)
		r.Post("/submit-room-details", d.reviews.Submit)

		// JSON API
		r.Get("/api/hostels/{id}/floors", d.pages.Floors)
		r.Get("/api/trending", d.pages.Trending)
		r.With(middleware.Throttle(d.limiter)).Get("/api/speedtest", d.speedtest.SpeedTest)

		// Google sign-in
		r.Get("/auth/google", d.auth.Login)
		r.Get("/auth/google/callback", d.auth.Callback)
		r.Get("/logout", d.auth.Logout)
		r.Post("/logout", d.auth.Logout)
		r.With(middleware.RequireSession("/")).Get("/dashboard", d.auth.Dashboard)

		// Images
		r.Get("/images/hostels/{id}/{name}", d.images.Serve)
	})

	// Uploads bound their own body size from MAX_UPLOAD_SIZE.
	r.With(middleware.RequireSession("")).Post("/api/hostels/{id}/images", d.images.Upload)

	// 404 and 405 handlers
	r.NotFound(d.base.NotFound)
	r.MethodNotAllowed(d.base.MethodNotAllowed)

	return r
}
