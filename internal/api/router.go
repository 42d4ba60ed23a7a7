// Package api serves the JSON HTTP API used by the mobile client.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vladimiradmaev/eyecare-tracker/internal/config"
	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	"github.com/vladimiradmaev/eyecare-tracker/internal/interfaces"
	"github.com/vladimiradmaev/eyecare-tracker/internal/metrics"
)

// Services are the application services the API exposes
type Services struct {
	Auth     interfaces.AuthServiceInterface
	Users    interfaces.UserServiceInterface
	Glaucoma interfaces.GlaucomaServiceInterface
	Retina   interfaces.RetinaServiceInterface
}

// Router creates and configures the HTTP router
type Router struct {
	services Services
	cfg      config.HTTPConfig
	metrics  *metrics.Collector
}

func NewRouter(services Services, cfg config.HTTPConfig, m *metrics.Collector) *Router {
	return &Router{
		services: services,
		cfg:      cfg,
		metrics:  m,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(rt.metrics))

	origins := rt.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", healthCheck)
	router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	authH := &authHandler{auth: rt.services.Auth, users: rt.services.Users}
	glaucomaH := &measurementHandler[*domain.GlaucomaMeasurement]{
		service: rt.services.Glaucoma,
		build:   buildGlaucoma,
	}
	retinaH := &measurementHandler[*domain.RetinaInjectionMeasurement]{
		service: rt.services.Retina,
		build:   buildRetinaInjection,
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", authH.SignUp)
		r.Post("/auth/signin", authH.SignIn)
		r.Get("/session", authH.Session)

		r.Group(func(r chi.Router) {
			r.Use(authenticate(rt.services.Auth))

			r.Post("/auth/signout", authH.SignOut)
			r.Get("/me", authH.Me)
			r.Put("/me", authH.UpdateMe)

			r.Route("/glaucoma", glaucomaH.routes)
			r.Route("/retina", retinaH.routes)
		})
	})

	return router
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
