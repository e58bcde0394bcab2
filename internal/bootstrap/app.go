package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kanban-collab/kanban-backend/config"
	httpapi "github.com/kanban-collab/kanban-backend/internal/api/http"
	"github.com/kanban-collab/kanban-backend/internal/auth"
	authmw "github.com/kanban-collab/kanban-backend/internal/auth/middleware"
	"github.com/kanban-collab/kanban-backend/internal/projects/access"
	"github.com/kanban-collab/kanban-backend/internal/projects/events"
	projectrepo "github.com/kanban-collab/kanban-backend/internal/projects/repository"
	projectservice "github.com/kanban-collab/kanban-backend/internal/projects/service"
	"github.com/kanban-collab/kanban-backend/internal/storage/postgres"
	taskrepo "github.com/kanban-collab/kanban-backend/internal/tasks/repository"
	taskservice "github.com/kanban-collab/kanban-backend/internal/tasks/service"
	"github.com/kanban-collab/kanban-backend/internal/users"
)

// App owns every long-lived resource of the API process.
type App struct {
	Router *gin.Engine

	sqlDB *sql.DB
	pool  *pgxpool.Pool
	redis *redis.Client
}

// NewApp connects the configured backends and assembles the router.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	var (
		store    projectrepo.Store
		tasks    taskrepo.Repository
		resolver authmw.UserResolver
		pinger   httpapi.Pinger
	)
	switch cfg.Database.Driver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		store = projectrepo.NewMemoryStore()
		tasks = taskrepo.NewMemoryRepository()
		resolver = users.Passthrough{}
	default:
		db, err := postgres.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		app.sqlDB = db

		pool, err := OpenPool(ctx, &cfg.Database, DBOptions{})
		if err != nil {
			return nil, err
		}
		app.pool = pool

		store = projectrepo.NewPostgresStore(db)
		tasks = taskrepo.NewTaskRepository(db)
		resolver = users.NewRepo(pool)
		pinger = pool
	}
	store = projectrepo.WithTimeout(store, cfg.Database.StoreTimeout)

	var sink events.Sink = events.Nop{}
	if cfg.Redis.Enabled() {
		client, err := OpenRedis(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.redis = client
		sink = events.NewRedisPublisher(client)
	}

	var verifier auth.TokenVerifier
	switch cfg.Firebase.AuthMode {
	case config.AuthModeHeader:
		log.Warn("AUTH_MODE=header: trusting X-User-Id, do not use outside development")
		verifier = auth.HeaderVerifier{}
	default:
		client, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			return nil, fmt.Errorf("firebase: %w", err)
		}
		verifier = auth.NewFirebaseVerifier(client)
	}

	projects := projectservice.NewProjectService(store,
		projectservice.WithEvents(sink),
		projectservice.WithLogger(log.Named("projects")),
	)
	taskSvc := taskservice.NewTaskService(tasks, access.NewEvaluator(store))

	app.Router = BuildRouter(RouterDeps{
		ServiceName: cfg.App.ServiceName,
		Version:     cfg.App.Version,
		Logger:      log,
		DB:          pinger,
		Projects:    projects,
		Tasks:       taskSvc,
		Verifier:    verifier,
		Users:       resolver,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		RateLimit:   cfg.RateLimit,
	})

	ok = true
	return app, nil
}

func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
}
