package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/boardroom"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/decks"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/extraction"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/queue"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/config"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/server"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/server/middleware"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/storage/db"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/storage/object"
	localstore "github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/storage/object/local"
	s3store "github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/storage/object/s3"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/users"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/webhooks"
)

// App holds shared dependencies for the API and worker processes.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	DecksRepo decks.Repo
	UsersRepo users.Repo

	DecksService *decks.Service
	Extractor    extraction.Extractor
	DeckWorker   *decks.Worker
	Janitor      *decks.Janitor

	DecksHandler     *decks.Handler
	BoardroomHandler *boardroom.Handler
	WebhooksHandler  *webhooks.Handler
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		DecksHandler:     app.DecksHandler,
		BoardroomHandler: app.BoardroomHandler,
		WebhooksHandler:  app.WebhooksHandler,
		RateLimit:        rateLimitConfig(),
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("FG_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func buildServices(app *App) error {
	if app.DB != nil {
		app.DecksRepo = &decks.PGRepo{DB: app.DB}
		app.UsersRepo = &users.PGRepo{DB: app.DB}
	} else {
		app.DecksRepo = decks.NewMemoryRepo()
		app.UsersRepo = users.NewMemoryRepo()
	}

	if app.Queue == nil && !isDevLike(app.Config.Env) {
		return errors.New("FG_SQS_QUEUE_URL is required")
	}

	if strings.TrimSpace(app.Config.GoogleAPIKey) != "" {
		client, err := extraction.NewClient(extraction.Config{
			Model:          app.Config.GeminiModel,
			APIKey:         app.Config.GoogleAPIKey,
			SizeLimitBytes: app.Config.SizeLimitBytes,
			Temperature:    app.Config.Temperature,
		})
		if err != nil {
			return err
		}
		app.Extractor = extraction.WithRetry(client, app.Config.RetryAttempts)
	}

	app.DeckWorker = &decks.Worker{
		Repo:      app.DecksRepo,
		Store:     app.Store,
		Extractor: app.Extractor,
	}
	app.Janitor = &decks.Janitor{
		Repo:  app.DecksRepo,
		Lease: time.Duration(app.Config.ProcessingLeaseMinutes) * time.Minute,
	}

	// Dev fallback: without SQS, process uploads inline on a goroutine so an
	// upload still reaches ready locally.
	if app.Queue == nil && app.Extractor != nil {
		app.Queue = inlineQueue{worker: app.DeckWorker}
	}

	app.DecksService = &decks.Service{
		Repo:  app.DecksRepo,
		Store: app.Store,
		Queue: app.Queue,
	}

	app.DecksHandler = decks.NewHandler(app.DecksService)
	app.BoardroomHandler = boardroom.NewHandler(app.DecksRepo)
	app.WebhooksHandler = webhooks.NewHandler(app.Config.WebhookSecret, app.UsersRepo)
	return nil
}

// inlineQueue runs the worker in-process. Dev only; there is no redelivery,
// so a crash mid-run relies on the janitor to reap the deck.
type inlineQueue struct {
	worker *decks.Worker
}

func (q inlineQueue) Send(ctx context.Context, msg queue.Message) error {
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		q.worker.Execute(bg, msg.DeckID, msg.UploadPath)
	}()
	return nil
}

func rateLimitConfig() *middleware.RateLimitConfig {
	return &middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 10, Burst: 30},
			"UPLOAD":  {Rate: 0.5, Burst: 5},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == "POST" && c.FullPath() == "/api/v1/decks" {
				return "UPLOAD"
			}
			return ""
		},
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
