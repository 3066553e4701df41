// Package web serves the newsletter pages: home, create post, post list and
// post detail.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"newsletter/internal/config"
	"newsletter/internal/middleware"
	"newsletter/internal/models"
	"newsletter/internal/observability"
	"newsletter/internal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed templates/*.html
var templateFS embed.FS

// PostService is everything the pages need from the posts API.
type PostService interface {
	views.PostCreator
	views.PostLister
	views.PostFetcher
	// Endpoint is the posts collection URL, checked for readiness.
	Endpoint() string
}

// Server holds the dependencies of the web pages.
type Server struct {
	config *config.Config
	api    config.APIConfig
	posts  PostService
	redis  *redis.Client
	health *http.Client
	app    *fiber.App
}

// NewServer creates a Server. rdb may be nil, in which case creation is not rate limited.
func NewServer(cfg *config.Config, posts PostService, rdb *redis.Client) *Server {
	return &Server{
		config: cfg,
		api:    cfg.API(),
		posts:  posts,
		redis:  rdb,
		health: &http.Client{Timeout: 5 * time.Second},
	}
}

// App builds the Fiber application once and returns it.
func (s *Server) App() (*fiber.App, error) {
	if s.app != nil {
		return s.app, nil
	}

	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")

	app := fiber.New(fiber.Config{
		AppName: "Newsletter",
		Views:   engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				observability.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			}
			return c.Status(code).SendString(http.StatusText(code))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.MetricsMiddleware(middleware.InitMetrics("newsletter_web")))
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	middleware.InitMetrics("newsletter_web").RegisterAt(app, "/metrics")

	app.Get("/", s.HomePage)
	app.Get("/create-post", s.CreatePostPage)
	app.Post("/create-post", middleware.RateLimit(s.redis, middleware.RateLimitConfig{
		Limit:        s.config.CreateRateLimit,
		Window:       time.Minute,
		Resource:     "create_post",
		Policy:       middleware.FailOpen,
		LimitReached: s.createRateLimited,
	}), s.SubmitPost)
	app.Get("/newsletters", s.PostsListPage)
	app.Get("/newsletter", s.PostDetailPage)
	app.Get("/newsletter/:id", s.PostDetailPage)
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the posts endpoint answers without a server
// error and, when configured, whether Redis does.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	apiStatus := "healthy"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.posts.Endpoint()+"/", nil)
	if err != nil {
		apiStatus = "unhealthy"
	} else if resp, err := s.health.Do(req); err != nil {
		apiStatus = "unhealthy"
	} else {
		_ = resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			apiStatus = "unhealthy"
		}
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if apiStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":      overallStatus,
		"environment": s.api.Environment,
		"api":         s.posts.Endpoint(),
		"checks": fiber.Map{
			"posts_api": apiStatus,
			"redis":     redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port.
func (s *Server) Start() error {
	app, err := s.App()
	if err != nil {
		return err
	}
	observability.Logger.Info("web server starting",
		slog.String("port", s.config.Port),
		slog.String("environment", string(s.api.Environment)),
		slog.String("api", s.api.BaseURL),
	)
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops the listener and closes Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			observability.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}
	observability.Logger.Info("web server shutdown complete")
	return nil
}

func (s *Server) createRateLimited(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).Render("create", createPage(
		models.CreatePostInput{Title: c.FormValue(views.FieldTitle), Content: c.FormValue(views.FieldContent)},
		models.FormStatus{Message: msgTooManyPosts, IsError: true},
		false,
	), "layout")
}
