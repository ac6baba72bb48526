package bootstrap

import (
	"os"
	"strings"
	"time"

	"procure_server/adapter/in/http"
	"procure_server/config"
	"procure_server/infra/middleware"
	"procure_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "procureflow-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		Prefork:               false,
		StrictRouting:         false,
		CaseSensitive:         false,

		ReadBufferSize:  16384,
		WriteBufferSize: 16384,

		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		// Inbound-parse payloads carry full MIME bodies.
		BodyLimit: cfg.WebhookBodyLimitMB * 1024 * 1024,

		Concurrency: 256 * 1024,

		ServerHeader:       "",
		DisableDefaultDate: true,

		DisableKeepalive: false,

		StreamRequestBody:            false,
		DisablePreParseMultipartForm: false,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.ValidateContentType())
	app.Use(middleware.RequestLogger())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// CORS. AllowCredentials:true requires explicit origins, never "*".
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Health check (no auth required)
	healthHandler := http.NewHealthHandler(deps.DB, deps.Redis, deps.MongoDB)
	healthHandler.Register(app)

	// Inbound webhook (no auth required, called by the email provider)
	webhookHandler := http.NewWebhookHandler(deps.InboundService)
	webhookHandler.Register(app)

	// API routes (with rate limiting and auth)
	api := app.Group("/api/v1")

	rateLimiter := middleware.NewRateLimiter(deps.Redis, cfg.RateLimitPerMinute, time.Minute)
	api.Use(rateLimiter.Handler())

	api.Use(middleware.JWTAuth(cfg.JWTSecret))

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	sseHandler := http.NewSSEHandler(deps.SSEHub, deps.RealtimeAdapter, zlog)
	sseHandler.Register(api)

	emailHandler := http.NewEmailHandler(deps.DispatchService)
	emailHandler.Register(api)

	classifyHandler := http.NewClassifyHandler(deps.ClassifyService)
	classifyHandler.Register(api)

	threadHandler := http.NewThreadHandler(deps.ThreadService)
	threadHandler.Register(api)

	negotiationHandler := http.NewNegotiationHandler(deps.NegotiationService)
	negotiationHandler.Register(api)

	logger.Info("API server initialized successfully")

	return app, cleanup, nil
}
