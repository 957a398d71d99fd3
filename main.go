package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"termdeposit/client"
	"termdeposit/config"
	qhttp "termdeposit/http"
	"termdeposit/logging"
	"termdeposit/ml"
	"termdeposit/monitoring"
	"termdeposit/predict"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: ./config.yaml or ../config.yaml)")
	flag.Parse()

	// 1. Load config
	cfg, cfgErr := loadConfig(*configPath)
	if cfgErr != nil {
		cfg = config.Default()
	}

	logger := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logger.Sync()

	if cfgErr != nil {
		if *configPath != "" {
			logger.Fatal("failed to load config", zap.Error(cfgErr))
		}
		logger.Warn("no config file, using defaults", zap.Error(cfgErr))
	}

	// 2. Load the model artifact; the process cannot serve without it.
	model, err := ml.LoadModel(ml.LoadConfig{
		ModelType:    cfg.ML.ModelType,
		ModelPath:    cfg.ML.ModelPath,
		MetadataPath: cfg.ML.MetadataPath,
		LibraryPath:  cfg.ML.LibraryPath,
	}, client.Schema())
	if err != nil {
		logger.Fatal("failed to load model", zap.String("path", cfg.ML.ModelPath), zap.Error(err))
	}
	if closer, ok := model.(io.Closer); ok {
		defer closer.Close()
	}
	monitoring.ModelInfo.WithLabelValues(model.Type()).Set(1)
	logger.Info("model loaded", zap.String("path", cfg.ML.ModelPath), zap.String("model_type", model.Type()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.ML.WatchArtifact {
		if err := ml.WatchArtifact(ctx, cfg.ML.ModelPath, logger); err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
		}
	}

	service, err := predict.NewService(model,
		predict.WithLogger(logger),
		predict.WithCache(cfg.ML.CacheSize))
	if err != nil {
		logger.Fatal("failed to create prediction service", zap.Error(err))
	}

	// 3. Start HTTP server
	handler := qhttp.NewHandler(service, cfg.ML.StrictCategories, logger)
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}, handler, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 4. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		located, err := config.Locate("config.yaml")
		if err != nil {
			return nil, err
		}
		path = located
	}
	return config.Load(path)
}
