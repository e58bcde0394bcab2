package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kanban-collab/kanban-backend/config"
	"github.com/kanban-collab/kanban-backend/internal/api/http/middleware"
	"github.com/kanban-collab/kanban-backend/internal/auth"
	authhttp "github.com/kanban-collab/kanban-backend/internal/auth/http"
	authmw "github.com/kanban-collab/kanban-backend/internal/auth/middleware"
	projecthttp "github.com/kanban-collab/kanban-backend/internal/projects/http"
	projectservice "github.com/kanban-collab/kanban-backend/internal/projects/service"
	taskhttp "github.com/kanban-collab/kanban-backend/internal/tasks/http"
	taskservice "github.com/kanban-collab/kanban-backend/internal/tasks/service"
)

type V1Deps struct {
	Projects  *projectservice.ProjectService
	Tasks     *taskservice.TaskService
	Verifier  auth.TokenVerifier
	Users     authmw.UserResolver
	RateLimit config.RateLimitConfig
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")

	api.Use(authmw.Authenticate(dep.Verifier, dep.Users))
	api.Use(middleware.NewRateLimiter(dep.RateLimit.RPS, dep.RateLimit.Burst).Middleware())

	authhttp.New().Register(api)

	projectsGroup := api.Group("/projects")
	projecthttp.New(dep.Projects).Register(projectsGroup)

	tasks := taskhttp.New(dep.Tasks)
	tasks.RegisterProjectRoutes(projectsGroup)
	tasks.Register(api.Group("/tasks"))
}
