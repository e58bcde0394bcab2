package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kanban-collab/kanban-backend/config"
	httpapi "github.com/kanban-collab/kanban-backend/internal/api/http"
	"github.com/kanban-collab/kanban-backend/internal/api/http/middleware"
	"github.com/kanban-collab/kanban-backend/internal/api/http/routes"
	"github.com/kanban-collab/kanban-backend/internal/auth"
	authmw "github.com/kanban-collab/kanban-backend/internal/auth/middleware"
	projectservice "github.com/kanban-collab/kanban-backend/internal/projects/service"
	taskservice "github.com/kanban-collab/kanban-backend/internal/tasks/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Logger      *zap.Logger
	DB          httpapi.Pinger
	Projects    *projectservice.ProjectService
	Tasks       *taskservice.TaskService
	Verifier    auth.TokenVerifier
	Users       authmw.UserResolver
	CORSOrigins []string
	RateLimit   config.RateLimitConfig
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", "X-User-Id", "X-User-Email"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB)
	healthHandler.RegisterRoutes(r)

	routes.RegisterV1(r, routes.V1Deps{
		Projects:  dep.Projects,
		Tasks:     dep.Tasks,
		Verifier:  dep.Verifier,
		Users:     dep.Users,
		RateLimit: dep.RateLimit,
	})

	return r
}
