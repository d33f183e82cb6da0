package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/recommender/internal/api"
	"github.com/knowledge-engine/recommender/internal/cache"
	"github.com/knowledge-engine/recommender/internal/catalog"
	"github.com/knowledge-engine/recommender/internal/config"
	"github.com/knowledge-engine/recommender/internal/engine"
	"github.com/knowledge-engine/recommender/internal/fetcher"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Setup Logging
	cfg := config.Load()
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	entry := logger.WithField("service", "recommender-api")

	entry.Info("Starting Restaurant Recommender Service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Catalog source
	f := fetcher.NewFetcher(cfg.Fetch, entry.WithField("component", "fetcher"))
	src, err := catalog.NewSource(cfg.Catalog, f)
	if err != nil {
		entry.Fatalf("Failed to configure catalog source: %v", err)
	}
	opts := engine.Options{
		TopK:        cfg.Engine.TopK,
		StopWords:   cfg.Engine.ExtraStopWords,
		StripMarkup: cfg.Engine.StripMarkup,
	}
	engineLog := entry.WithField("component", "engine")

	// 2. Engine; a failed build leaves the service up in offline mode
	holder := engine.NewHolder(nil)
	eng, err := engine.Load(ctx, src, opts, engineLog)
	if err != nil {
		holder.SetError(err)
		entry.WithError(err).WithField("source", src.String()).Error("Recommendation engine is offline")
	} else {
		holder.Store(eng)
	}

	// 3. Response cache
	responseCache := cache.New(ctx, cfg.Cache, entry.WithField("component", "cache"))
	defer responseCache.Close()

	// 4. API Server
	server := api.NewServer(holder, responseCache, engine.Builder(src, opts, engineLog), entry)
	if err := server.Start(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout); err != nil {
		entry.Fatal(err)
	}
}
