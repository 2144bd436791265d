package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"diabetesrisk/auth"
	"diabetesrisk/config"
	"diabetesrisk/db"
	qhttp "diabetesrisk/http"
	"diabetesrisk/logging"
	"diabetesrisk/ml"
	"diabetesrisk/session"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	logger, level, err := logging.New(cfg.Log)
	if err != nil {
		zap.NewExample().Fatal("Failed to build logger", zap.Error(err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	if cfg.UsesDevelopmentSecret() {
		logger.Warn("Using the development session secret; set " + config.EnvSessionSecret + " in production")
	}

	watcher, err := config.Watch(*configPath, logger, func(next *config.Config) {
		parsed, err := logging.ParseLevel(next.Log.Level)
		if err != nil {
			logger.Warn("Ignoring log level from reloaded config", zap.Error(err))
			return
		}
		level.SetLevel(parsed)
	})
	if err != nil {
		logger.Warn("Config hot reload disabled", zap.Error(err))
	} else {
		defer watcher.Close()
	}

	ctx := context.Background()

	// 2. Initialize database
	store, err := db.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Database initialized", zap.String("path", cfg.Database.Path))

	var users auth.UserStore = auth.NewMemoryStore()
	if cfg.Auth.Store == config.AuthStoreSQLite {
		if users, err = store.Users(ctx); err != nil {
			logger.Fatal("Failed to initialize user store", zap.Error(err))
		}
	}

	// 3. Load or train the model
	trainerConfig, datasetConfig := cfg.ML.Training()
	models := ml.NewModelHolder(ml.NewTrainer(trainerConfig, logger, store), datasetConfig, logger)
	if _, err := models.LoadOrTrain(ctx); err != nil {
		logger.Fatal("Failed to load model", zap.String("path", trainerConfig.ModelPath), zap.Error(err))
	}

	// 4. Start HTTP server
	sessions, err := session.NewManager(cfg.Session, logger)
	if err != nil {
		logger.Fatal("Failed to create session manager", zap.Error(err))
	}
	app, err := qhttp.NewApp(auth.NewService(users, logger), sessions, store, models, logger)
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:            cfg.Http.Port,
		ReadTimeout:     cfg.Http.ReadTimeout,
		WriteTimeout:    cfg.Http.WriteTimeout,
		ShutdownTimeout: cfg.Http.ShutdownTimeout,
		MaxBodyBytes:    cfg.Http.MaxBodyBytes,
	}, app, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}
	logger.Info("Shutting down...")

	if err := server.Stop(); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Exiting")
}
