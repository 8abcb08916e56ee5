package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/conductionnl/commonground-gateway/internal/cache"
	"github.com/conductionnl/commonground-gateway/internal/config"
	"github.com/conductionnl/commonground-gateway/internal/core"
)

const cacheKeyPrefix = "cg:"

// initializeAppConfigCache selects the cache backend for the application
// configuration (resident city names).
func initializeAppConfigCache(cfg *config.Config) (core.Cache[[]string], error) {
	switch cfg.CacheType {
	case config.CacheTypeMemory:
		return cache.NewMemoryCache[[]string](), nil

	case config.CacheTypeRueidis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return cache.NewRueidisCache[[]string](
			ctx,
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			cacheKeyPrefix,
		)

	case config.CacheTypeRueidisAside:
		return cache.NewRueidisAsideCache[[]string](
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			cacheKeyPrefix,
			30*time.Second,
		)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}
