package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shenikar/silent_signal_system/internal/auth"
	"github.com/shenikar/silent_signal_system/internal/backend"
	"github.com/shenikar/silent_signal_system/internal/config"
	v1 "github.com/shenikar/silent_signal_system/internal/handler/http/v1"
	"github.com/shenikar/silent_signal_system/internal/hub"
	"github.com/shenikar/silent_signal_system/internal/service"
	"github.com/shenikar/silent_signal_system/internal/webhook"
	firestoreclient "github.com/shenikar/silent_signal_system/pkg/firestore"
	"github.com/shenikar/silent_signal_system/pkg/logger"
	redisclient "github.com/shenikar/silent_signal_system/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/silent_signal_system/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title SilentSignal Command Center API
// @version 1.0
// @description Incident reporting and live monitoring service.
// @host localhost:8080
// @BasePath /api/v1
func newAlertStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (backend.AlertStore, func(), error) {
	if cfg.UseMemoryStore {
		log.Warn("Using in-memory alert store: data will not survive a restart")
		return backend.NewMemoryStore(), func() {}, nil
	}

	client, err := firestoreclient.NewFirestoreClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Error("Failed to close Firestore client")
		}
	}
	return backend.NewFirestoreStore(client, cfg.AlertsCollection), closer, nil
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Подключение к документному бэкенду
	store, closeStore, err := newAlertStore(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to alert store: %v", err)
	}
	defer closeStore()
	log.Info("Successfully connected to alert store")

	// Инициализация Redis клиента (сессии + очередь вебхуков)
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Инициализация издателя событий тревог
	eventPublisher := webhook.NewRedisPublisher(redisClient)

	// Инициализация и запуск воркера вебхуков
	webhookWorker := webhook.NewWorker(redisClient, log, cfg)
	webhookWorker.Start(ctx)

	// Хаб рассылки состояния панели по WebSocket
	hubManager := hub.NewManager(log)
	go hubManager.Run(ctx)

	// Инициализация сервисов
	alertService := service.NewAlertService(store, log, cfg)
	stream := service.NewStream(store, log, cfg, eventPublisher)
	stream.AddListener(v1.NewStateBroadcaster(hubManager, log))
	stream.Run(ctx)

	// Провайдер идентификации и хранилище сессий
	authProvider := auth.NewIdentityToolkitProvider(cfg)
	sessions := auth.NewRedisSessionStore(redisClient, cfg.SessionTTL)

	// Инициализация хэндлеров
	handler := v1.NewHandler(alertService, stream, authProvider, sessions, hubManager, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}
