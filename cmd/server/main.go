package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/anndata/agriplatform/internal/config"
	"github.com/anndata/agriplatform/internal/database"
	"github.com/anndata/agriplatform/internal/gateway"
	"github.com/anndata/agriplatform/internal/handler"
	"github.com/anndata/agriplatform/internal/middleware"
	"github.com/anndata/agriplatform/internal/queue"
	"github.com/anndata/agriplatform/internal/repository"
	"github.com/anndata/agriplatform/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.DBName); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	// Redis is optional: rate limiting and response caching degrade to
	// pass-through middleware when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	accounts := repository.NewAccountRepo(db)
	predictions := repository.NewPredictionRepo(db)
	feedback := repository.NewFeedbackRepo(db)
	modelClient := gateway.NewModelClient(cfg.ModelAPIURL, time.Duration(cfg.ModelTimeoutSec)*time.Second)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, accounts), handler.NewUserHandler(cfg, accounts), cfg.JWTSecret)
	router.RegisterPredictions(e, handler.NewPredictionHandler(cfg, predictions, modelClient), cfg.JWTSecret, cacheMW)
	router.RegisterFeedback(e, handler.NewFeedbackHandler(feedback))
	router.RegisterStats(e, handler.NewStatsHandler(accounts, predictions, feedback), cacheMW)

	// Background consumer keeps running across broker restarts.
	go func() {
		if err := queue.StartPredictionConsumer(); err != nil {
			log.Printf("prediction consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown: stop accepting requests, then release the pool.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
