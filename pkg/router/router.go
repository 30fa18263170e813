package router

import (
	"net/http"

	"npc-chatlab/backend/internal/api"
	"npc-chatlab/backend/pkg/config"
	"npc-chatlab/backend/pkg/di"
	"npc-chatlab/backend/pkg/errors"
	"npc-chatlab/backend/pkg/logger"
	"npc-chatlab/backend/pkg/middleware"
	"npc-chatlab/backend/pkg/observability"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container, cfg *config.Config) *Router {
	logger.SetGlobal(container.Logger)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rateLimiter := middleware.NewRateLimiter(container.Logger, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: middleware.DefaultRateLimiterOptions().ExpiryDuration,
		KeyFunc:        middleware.DefaultRateLimiterOptions().KeyFunc,
	})
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware(r.Config.Security.AllowedOrigins))

	c := r.Container

	healthHandler := api.NewHealthHandler(c.DB, r.Config.Server.Env)
	characterHandler := api.NewCharacterHandler(c.CharacterService)
	promptHandler := api.NewPromptHandler(c.PromptService)
	sessionHandler := api.NewSessionHandler(c.SessionService, c.MessageService)
	messageHandler := api.NewMessageHandler(
		c.SessionService,
		c.CharacterService,
		c.PromptService,
		c.MessageService,
		c.Orchestrator,
		c.AIClient,
		c.Hub,
		r.Config.Chat.DefaultModel,
	)

	apiGroup := r.Engine.Group("/api")

	healthHandler.RegisterRoutes(apiGroup)
	r.registerAuthRoutes(apiGroup)

	labRoutes := apiGroup.Group("/")
	if r.Config.Auth.Enabled {
		labRoutes.Use(middleware.JWTAuthMiddleware(c.JWTService, r.Logger))
	}
	{
		characterHandler.RegisterRoutes(labRoutes)
		promptHandler.RegisterRoutes(labRoutes)
		sessionHandler.RegisterRoutes(labRoutes)
		messageHandler.RegisterRoutes(labRoutes)
	}

	r.Engine.GET("/ws", c.Hub.ServeWs)
	r.Engine.GET("/metrics", observability.MetricsHandler())
}

// registerAuthRoutes exposes token issuance for operators. The operator
// key is a shared secret; when unset the endpoint is not registered.
func (r *Router) registerAuthRoutes(group *gin.RouterGroup) {
	if r.Config.Auth.OperatorKey == "" {
		return
	}

	group.POST("/auth/token", func(c *gin.Context) {
		var req struct {
			Operator    string `json:"operator" binding:"required"`
			OperatorKey string `json:"operatorKey" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
			return
		}
		if req.OperatorKey != r.Config.Auth.OperatorKey {
			c.Error(errors.NewUnauthorizedError("INVALID_OPERATOR_KEY", "Operator key mismatch"))
			return
		}

		token, err := r.Container.JWTService.GenerateToken(req.Operator)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
