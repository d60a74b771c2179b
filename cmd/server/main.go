package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/olyamironova/orderbook-engine/internal/adapter/cache"
	"github.com/olyamironova/orderbook-engine/internal/adapter/in_memory"
	"github.com/olyamironova/orderbook-engine/internal/adapter/pg"
	"github.com/olyamironova/orderbook-engine/internal/api/http"
	"github.com/olyamironova/orderbook-engine/internal/config"
	"github.com/olyamironova/orderbook-engine/internal/core"
	"github.com/olyamironova/orderbook-engine/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var repo port.Repository
	if cfg.Postgres.DSN != "" {
		pgRepo, err := pg.NewPgRepo(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Fatal("connect to postgres", zap.Error(err))
		}
		defer pgRepo.Close(ctx)
		repo = pgRepo
	} else {
		logger.Warn("no postgres dsn configured, using in-memory repository")
		repo = in_memory.NewMemoryRepo()
	}

	var depthCache port.Cache
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		defer redisCache.Close()
		depthCache = redisCache
	} else {
		logger.Warn("no redis addr configured, using in-memory cache")
		depthCache = in_memory.NewCache()
	}

	engine := core.NewEngine(logger, repo, depthCache, cfg.Market.Symbol)
	if err := engine.LoadOpenOrders(ctx); err != nil {
		logger.Fatal("load open orders", zap.Error(err))
	}

	go pruneAtClose(ctx, engine, logger, cfg.Market.CloseAt)

	server := http.NewHTTPServer(engine, logger, cfg.Market.PriceScale, cfg.Market.QtyScale, cfg.HTTP.RateLimit)
	if err := server.Run(cfg.HTTP.Addr); err != nil {
		logger.Fatal("http server", zap.Error(err))
	}
}

// pruneAtClose cancels GoodForDay orders at each market close.
func pruneAtClose(ctx context.Context, engine *core.Engine, logger *zap.Logger, closeAt string) {
	for {
		next, err := core.NextClose(time.Now(), closeAt)
		if err != nil {
			logger.Error("bad close time, good-for-day pruning disabled", zap.String("close_at", closeAt), zap.Error(err))
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			n := engine.PruneGoodForDay(ctx)
			logger.Info("good-for-day orders pruned", zap.Int("count", n))
		}
	}
}
