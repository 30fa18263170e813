package di

import (
	"fmt"

	"npc-chatlab/backend/ai"
	"npc-chatlab/backend/internal/conversation"
	"npc-chatlab/backend/internal/service"
	"npc-chatlab/backend/internal/ws"
	"npc-chatlab/backend/pkg/cache"
	"npc-chatlab/backend/pkg/config"
	"npc-chatlab/backend/pkg/jwt"
	"npc-chatlab/backend/pkg/logger"
	"npc-chatlab/backend/pkg/observability"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB               *gorm.DB
	Logger           *logger.Logger
	JWTService       *jwt.Service
	Cache            cache.Cache
	CharacterService *service.CharacterService
	PromptService    *service.PromptService
	SessionService   *service.SessionService
	MessageService   *service.MessageService
	ChatStore        *service.ChatStore
	AIClient         *ai.Client
	Recorder         *observability.ChatRecorder
	Compactor        *conversation.Compactor
	Orchestrator     *conversation.Orchestrator
	Hub              *ws.Hub
}

// New wires the application graph from the loaded configuration.
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	jwtService := jwt.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)

	appCache := newCache(cfg, log)

	characterService := service.NewCharacterService(db, appCache, cfg.Cache.TTL)
	promptService := service.NewPromptService(db, appCache, cfg.Cache.TTL)
	sessionService := service.NewSessionService(db)
	messageService := service.NewMessageService(db)
	chatStore := service.NewChatStore(db)

	aiClient, err := ai.NewClient(ai.Config{
		GoogleAPIKey:  cfg.Models.GoogleAPIKey,
		GeminiModel:   cfg.Models.GeminiModel,
		LocalModelURL: cfg.Models.LocalModelURL,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	recorder := observability.NewChatRecorder()
	compactor := conversation.NewCompactor(aiClient, cfg.Chat.SummarizeTimeout, recorder, log)
	orchestrator := conversation.NewOrchestrator(chatStore, aiClient, compactor, cfg.Chat.GenerateTimeout, recorder, log)

	hub := ws.NewHub(log)

	return &Container{
		DB:               db,
		Logger:           log,
		JWTService:       jwtService,
		Cache:            appCache,
		CharacterService: characterService,
		PromptService:    promptService,
		SessionService:   sessionService,
		MessageService:   messageService,
		ChatStore:        chatStore,
		AIClient:         aiClient,
		Recorder:         recorder,
		Compactor:        compactor,
		Orchestrator:     orchestrator,
		Hub:              hub,
	}, nil
}

// newCache prefers Redis when configured, falling back to the in-process
// cache so a missing Redis never blocks startup.
func newCache(cfg *config.Config, log *logger.Logger) cache.Cache {
	if cfg.Cache.Enabled && cfg.Cache.RedisAddr != "" {
		redisCache, err := cache.NewRedis(cfg.Cache.RedisAddr)
		if err == nil {
			log.Info("using redis cache", "addr", cfg.Cache.RedisAddr)
			return redisCache
		}
		log.Warn("redis unavailable, using in-memory cache",
			"addr", cfg.Cache.RedisAddr,
			"error", err.Error(),
		)
	}
	return cache.NewMemory(cfg.Cache.MaxSize)
}
