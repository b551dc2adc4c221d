package main

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger-service/internal/auth"
	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/handlers"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/ws"
)

type stores struct {
	users    repositories.UserRepository
	groups   repositories.GroupRepository
	messages repositories.MessageRepository
	database *sqlx.DB
}

func (s stores) Close() error {
	if s.database == nil {
		return nil
	}
	return s.database.Close()
}

func openStores(cfg config.Config, log *slog.Logger) (stores, error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Info("using in-memory storage")
		return stores{
			users:    repositories.NewMemoryUserRepo(),
			groups:   repositories.NewMemoryGroupRepo(),
			messages: repositories.NewMemoryMessageRepo(),
		}, nil
	}

	database, err := db.Connect(cfg.StorageDriver, cfg.DatabaseDSN, log)
	if err != nil {
		return stores{}, fmt.Errorf("failed to connect to db: %w", err)
	}
	return stores{
		users:    repositories.NewUserRepo(database),
		groups:   repositories.NewGroupRepo(database),
		messages: repositories.NewMessageRepo(database),
		database: database,
	}, nil
}

type app struct {
	router *gin.Engine
	hub    *ws.Hub
	relay  *rabbitmq.MessageRelay
}

func newApp(cfg config.Config, s stores, publisher rabbitmq.Publisher, log *slog.Logger) *app {
	directory := services.NewUserDirectory(s.users, auth.HashPassword, log)
	registry := services.NewGroupRegistry(s.groups, directory, log)
	store := services.NewMessageStore(s.messages, directory, registry, log)
	aggregator := services.NewConversationAggregator(directory, registry, store)
	messenger := services.NewMessenger(directory, registry, store, aggregator, log)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	hub := ws.NewHub(services.NewEnricher(directory, registry), cfg.HubOptions(), log)
	relay := rabbitmq.NewMessageRelay(publisher, cfg.ServiceName, cfg.RelayBuffer, log)
	store.Subscribe(hub)
	store.Subscribe(relay)

	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, cfg.ServiceName, cfg.Environment, log)

	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		otelgin.Middleware(cfg.ServiceName),
		middleware.RequestID(),
		observability.HTTPMetricsMiddleware(),
	)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(messenger, tokens, audit)
	router.POST("/auth/signup", authHandler.Signup)
	router.POST("/auth/login", authHandler.Login)

	router.GET("/ws", ws.NewHandler(hub, tokens, messenger, log).Handle)

	authMiddleware := middleware.AuthMiddleware(tokens)
	userHandler := handlers.NewUserHandler(messenger)
	chatHandler := handlers.NewChatHandler(messenger)
	groupHandler := handlers.NewGroupHandler(messenger, audit)

	router.GET("/users", authMiddleware, userHandler.Search)
	router.GET("/users/me", authMiddleware, userHandler.Me)
	router.GET("/users/:user_id/messages", authMiddleware, chatHandler.GetDirectMessages)

	router.GET("/conversations", authMiddleware, chatHandler.ListConversations)
	router.POST("/messages", authMiddleware, chatHandler.PostMessage)

	router.POST("/groups", authMiddleware, groupHandler.CreateGroup)
	router.GET("/groups", authMiddleware, groupHandler.ListGroups)
	router.GET("/groups/:group_id/messages", authMiddleware, chatHandler.GetGroupMessages)
	router.POST("/groups/:group_id/members", authMiddleware, groupHandler.AddMember)
	router.DELETE("/groups/:group_id/members/:user_id", authMiddleware, groupHandler.RemoveMember)

	handlers.RegisterDebugRoutes(router, audit, hub, cfg.DebugRoutes)

	return &app{router: router, hub: hub, relay: relay}
}
