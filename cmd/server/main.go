package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	openaigo "github.com/sashabaranov/go-openai"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"saga-server/internal/clients"
	"saga-server/internal/config"
	"saga-server/internal/database"
	"saga-server/internal/engine"
	"saga-server/internal/handler"
	"saga-server/internal/logger"
	"saga-server/internal/messaging"
	"saga-server/internal/random"
	"saga-server/internal/repository"
	"saga-server/internal/service"
	"saga-server/internal/sideeffects"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	ctx := context.Background()

	// PostgreSQL
	dbPool, err := database.NewPostgresPool(ctx, cfg.GetDSN(), cfg.DBMaxConns, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbPool.Close()
	if err := database.ApplyMigrations(dbPool, zapLogger); err != nil {
		zapLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Redis
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// RabbitMQ
	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()

	publisher, err := messaging.NewRabbitMQClientUpdatePublisher(rabbitConn, cfg.ClientUpdatesQueueName, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create client update publisher", zap.Error(err))
	}

	// AI clients
	narrativeClient, err := clients.NewNarrativeClient(clients.AIConfig{
		ClientType: cfg.AIClientType,
		BaseURL:    cfg.AIBaseURL,
		APIKey:     cfg.AIAPIKey,
		Model:      cfg.AIModel,
		Timeout:    cfg.AITimeout,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create narrative client", zap.Error(err))
	}

	mediaCfg := clients.MediaConfig{
		SavePath:      cfg.MediaSavePath,
		PublicBaseURL: cfg.MediaPublicBaseURL,
		Voice:         cfg.SpeechVoice,
		Timeout:       cfg.MediaTimeout,
	}
	openaiClient := openaigo.NewClient(cfg.AIAPIKey)
	speechClient, err := clients.NewOpenAISpeechClient(openaiClient, mediaCfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create speech client", zap.Error(err))
	}
	imageClient, err := clients.NewOpenAIImageClient(openaiClient, mediaCfg, cfg.ImageStyleSuffix, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create image client", zap.Error(err))
	}

	// Repositories and domain services
	legendRepo := repository.NewPgLegendRepository(dbPool, zapLogger)
	sessionRepo := repository.NewRedisSessionRepository(redisClient, cfg.SessionTTL, zapLogger)

	registry := service.NewRegistry(sessionRepo, cfg.NotificationTTL, zapLogger)
	defer registry.Close()

	legendService := service.NewLegendService(registry, legendRepo, narrativeClient, imageClient, publisher, zapLogger)

	pipeline := sideeffects.NewPipeline(
		speechClient, imageClient, narrativeClient,
		legendService, publisher, cfg.MediaTimeout, zapLogger)

	interpreter := engine.NewInterpreter(
		engine.Config{TerminalPhrases: cfg.TerminalPhrases},
		random.New(), zapLogger)

	sessionService := service.NewSessionService(registry, sessionRepo, zapLogger)
	turnService := service.NewTurnService(
		registry, sessionRepo, narrativeClient, interpreter,
		pipeline, publisher, cfg.SceneImagesEnabled, zapLogger)

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(handler.ZapLogging(zapLogger))
	router.Use(gin.Recovery())

	prom := ginprometheus.NewPrometheus("gin")
	prom.Use(router)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Static("/media", cfg.MediaSavePath)

	apiHandler := handler.NewHandler(sessionService, turnService, legendService, zapLogger)
	apiHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutdown signal received, draining...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	// Let in-flight media generations finish before closing connections.
	pipeline.Wait()

	zapLogger.Info("Server stopped")
}

// connectRabbitMQ retries the broker connection a few times; the broker
// often comes up after the service in compose environments.
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}
