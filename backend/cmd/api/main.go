package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"unipulse/backend/internal/admin"
	"unipulse/backend/internal/attendance"
	"unipulse/backend/internal/auth"
	"unipulse/backend/internal/gateway"
	"unipulse/backend/internal/gateway/util"
	"unipulse/backend/internal/probe"
	"unipulse/backend/internal/pyq"
	"unipulse/backend/internal/ratelimit"
	"unipulse/backend/internal/result"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/storage"
	"unipulse/backend/internal/store"
	"unipulse/backend/internal/timetable"
)

func main() {
	// Load environment variables
	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// 1. Load Configuration (validates MONGO_URI and JWT_SECRET are present)
	cfg, err := shared.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := shared.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	util.SetLogger(logger)

	if cfg.IsProduction() && len(cfg.CORS.AllowedOrigins) == 1 && cfg.CORS.AllowedOrigins[0] == "*" {
		logger.Warn("CORS allows every origin in production")
	}

	// 2. Connect to MongoDB
	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB, logger)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := shared.EnsureIndexes(indexCtx, db); err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}
	cancel()

	// 3. Storage and Rate Limiting
	st := store.NewMongo(db)

	blob, err := storage.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize blob storage", zap.Error(err))
	}
	filesDir := ""
	if !cfg.OSS.Enabled() {
		filesDir = cfg.Upload.Dir
	}

	limiter, err := ratelimit.New(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer limiter.Close()

	// 4. Initialize Services
	mongoReady := func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
	router := gateway.SetupRoutes(gateway.Deps{
		Config:     cfg,
		Logger:     logger,
		Auth:       auth.NewService(st.Users, st.Sessions, cfg.Security, logger),
		Attendance: attendance.NewService(st.Attendance, logger),
		Results:    result.NewService(st.Results, blob, logger),
		Timetable:  timetable.NewService(st.Timetable, logger),
		PYQ:        pyq.NewService(st.PYQ, blob, logger),
		Admin:      admin.NewService(st, cfg.Security.BCryptCost, logger),
		Limiter:    limiter,
		FilesDir:   filesDir,
		Ready:      mongoReady,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. gRPC Health Probe
	probeServer := probe.New(logger)
	listener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	go probeServer.Monitor(monitorCtx, 15*time.Second, mongoReady)

	go func() {
		logger.Info("health probe listening", zap.String("port", cfg.GRPCPort))
		if err := probeServer.Serve(listener); err != nil {
			logger.Error("probe server error", zap.Error(err))
		}
	}()

	// 6. Start HTTP Server
	go func() {
		logger.Info("UniPulse API listening", zap.String("port", cfg.HTTPPort), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down UniPulse API")
	stopMonitor()
	probeServer.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	if err := shared.DisconnectMongoDB(client); err != nil {
		logger.Error("error disconnecting from MongoDB", zap.Error(err))
	}
	logger.Info("UniPulse API stopped")
}
