package bootstrap

import (
	"context"
	"strings"
	"time"

	"procure_server/adapter/out/mailer"
	"procure_server/adapter/out/mongodb"
	"procure_server/adapter/out/persistence"
	"procure_server/adapter/out/realtime"
	"procure_server/config"
	"procure_server/core/agent/llm"
	"procure_server/core/port/in"
	"procure_server/core/port/out"
	"procure_server/core/service/classify"
	"procure_server/core/service/correlate"
	"procure_server/core/service/mail"
	"procure_server/core/service/negotiation"
	"procure_server/core/service/thread"
	"procure_server/infra/database"
	"procure_server/pkg/logger"
	"procure_server/pkg/snowflake"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	ThreadRepo      out.ThreadRepository
	MessageRepo     out.MessageRepository
	TrackingRepo    out.TrackingRepository
	ReplyRepo       out.ReplyRepository
	NegotiationRepo out.NegotiationRepository
	RawArchive      out.RawPayloadArchive

	// Outbound adapters
	Mailer out.Mailer

	// Realtime
	RealtimeAdapter *realtime.SSEAdapter
	SSEHub          *realtime.SSEHub

	// Agent
	LLMClient *llm.Client

	// ID generation
	Snowflake *snowflake.Generator

	// Services
	ClassifyService    in.ClassifyService
	Resolver           *correlate.Resolver
	DispatchService    in.DispatchService
	InboundService     in.InboundService
	ThreadService      in.ThreadService
	NegotiationService in.NegotiationService
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Database (pgxpool)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	// Database (sqlx for the persistence adapters)
	sqlxURL := cfg.DatabaseURL
	if strings.Contains(sqlxURL, "?") {
		sqlxURL += "&default_query_exec_mode=simple_protocol"
	} else {
		sqlxURL += "?default_query_exec_mode=simple_protocol"
	}
	sqlDB, err := sqlx.Connect("pgx", sqlxURL)
	if err != nil {
		return nil, nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	// Redis
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed: %v", err)
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
		}
	}

	// MongoDB (raw webhook payload archive)
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
		if err != nil {
			logger.Warn("MongoDB connection failed: %v", err)
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() {
				mongoClient.Disconnect(context.Background())
			})

			rawAdapter := mongodb.NewRawPayloadAdapter(mongoClient.Database(cfg.MongoDBName))
			if err := rawAdapter.EnsureIndexes(context.Background()); err != nil {
				logger.Warn("Failed to ensure MongoDB indexes: %v", err)
			}
			deps.RawArchive = rawAdapter
		}
	}

	// Snowflake generator for reply IDs
	idgen, err := snowflake.NewGenerator(cfg.SnowflakeID)
	if err != nil {
		return nil, nil, err
	}
	deps.Snowflake = idgen

	// Repositories
	deps.ThreadRepo = persistence.NewThreadAdapter(sqlDB)
	deps.MessageRepo = persistence.NewMessageAdapter(sqlDB)
	deps.ReplyRepo = persistence.NewReplyAdapter(sqlDB)
	deps.NegotiationRepo = persistence.NewNegotiationAdapter(sqlDB)

	trackingAdapter := persistence.NewTrackingAdapter(sqlDB)
	if deps.Redis != nil {
		deps.TrackingRepo = persistence.NewCachedTrackingAdapter(trackingAdapter, deps.Redis)
		logger.Info("Tracking lookups cached via Redis")
	} else {
		deps.TrackingRepo = trackingAdapter
	}

	// Realtime (SSE)
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	deps.RealtimeAdapter = realtime.NewSSEAdapter(zlog)
	deps.SSEHub = realtime.NewSSEHub(deps.RealtimeAdapter, zlog)

	// LLM classifier (optional; keyword and default rules cover its absence)
	var subjectClassifier out.SubjectClassifier
	if cfg.OpenAIAPIKey != "" {
		deps.LLMClient = llm.NewClient(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: float32(cfg.LLMTemperature),
		})
		subjectClassifier = deps.LLMClient
		logger.Info("LLM subject classifier initialized (model=%s)", cfg.LLMModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, subject classification runs on rules only")
	}

	// Mailer
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, outbound dispatch will fail")
	}
	deps.Mailer = mailer.NewSendGridAdapter(cfg.SendGridAPIKey, cfg.SendGridBaseURL)

	// Services
	deps.ClassifyService = classify.NewService(subjectClassifier, cfg.LLMTimeout)
	deps.Resolver = correlate.NewResolver(deps.TrackingRepo)

	deps.DispatchService = mail.NewDispatcher(
		mail.DispatcherConfig{
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
			ReplyTo:   cfg.ReplyToEmail,
		},
		deps.ThreadRepo,
		deps.MessageRepo,
		deps.TrackingRepo,
		deps.Mailer,
		deps.ClassifyService,
		deps.RealtimeAdapter,
	)

	deps.InboundService = mail.NewInboundService(
		deps.Resolver,
		deps.ThreadRepo,
		deps.MessageRepo,
		deps.ReplyRepo,
		deps.RawArchive,
		deps.RealtimeAdapter,
		deps.Snowflake,
	)

	deps.ThreadService = thread.NewService(
		deps.ThreadRepo,
		deps.MessageRepo,
		deps.NegotiationRepo,
		deps.RealtimeAdapter,
	)

	deps.NegotiationService = negotiation.NewService(
		deps.NegotiationRepo,
		deps.ThreadRepo,
		deps.MessageRepo,
	)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return deps, cleanup, nil
}

func (d *Dependencies) HealthCheck(ctx context.Context) error {
	if err := d.DB.Ping(ctx); err != nil {
		return err
	}

	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}

	return nil
}
