package bootstrap

import (
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conductionnl/commonground-gateway/internal/config"
	"github.com/conductionnl/commonground-gateway/internal/handlers"
	"github.com/conductionnl/commonground-gateway/internal/middleware"
	"github.com/conductionnl/commonground-gateway/internal/util"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(app *Application) (*gin.Engine, error) {
	cfg := app.Config

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.IPMiddleware())

	setupSessionMiddleware(r, cfg)

	// Health check endpoint
	healthHandler := handlers.NewHealthHandler(app.HealthChecker, app.AppConfigCache)
	r.GET("/healthz", healthHandler.Healthz)

	setupMetricsEndpoint(r, cfg)

	loginLimiter, err := setupLoginRateLimiter(cfg)
	if err != nil {
		return nil, err
	}

	authHandler := handlers.NewAuthHandler(app.Authenticator, cfg)
	registerHandler := handlers.NewRegisterHandler(app.Resolver, app.LoginLog)
	identityHandler := handlers.NewIdentityHandler(app.Provider)
	loginLogHandler := handlers.NewLoginLogHandler(app.LoginLog)

	// Login routes. The callback carries the same limiter as the entry
	// point so a redirect loop cannot hammer the external provider.
	r.GET(util.JoinPath(cfg.AppSubpath, cfg.LoginPath), loginLimiter, authHandler.Login)
	r.GET(util.JoinPath(cfg.AppSubpath, cfg.CallbackPath), loginLimiter, authHandler.Callback)
	r.GET(util.JoinPath(cfg.AppSubpath, "/logout"), authHandler.Logout)
	r.POST(util.JoinPath(cfg.AppSubpath, "/register"), loginLimiter, registerHandler.Register)

	// Protected routes (require login)
	protected := r.Group(util.JoinPath(cfg.AppSubpath, ""))
	protected.Use(middleware.RequireIdentity(app.Authenticator.Start()))
	{
		protected.GET("/me", identityHandler.Me)
	}

	// Admin routes
	admin := r.Group(util.JoinPath(cfg.AppSubpath, "/admin"))
	admin.Use(middleware.RequireIdentity(app.Authenticator.Start()))
	{
		admin.GET("/login-logs", loginLogHandler.List)
	}

	log.Printf("[Bootstrap] Server starting on %s", cfg.ServerAddr)
	log.Printf("[Bootstrap] Login entry point: %s%s", cfg.BaseURL, app.Authenticator.Start())

	return r, nil
}

// setupSessionMiddleware configures session handling middleware
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("cg_session", sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	if !cfg.MetricsEnabled {
		log.Printf("Prometheus metrics disabled")
		return
	}
	log.Printf("Prometheus metrics enabled at /metrics")
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// setupLoginRateLimiter builds the limiter guarding the login endpoints.
// When disabled it degrades to a pass-through handler.
func setupLoginRateLimiter(cfg *config.Config) (gin.HandlerFunc, error) {
	if !cfg.RateLimitEnabled {
		return func(c *gin.Context) { c.Next() }, nil
	}

	if cfg.RateLimitStore == string(middleware.RateLimitStoreRedis) {
		return middleware.NewRedisRateLimiter(
			cfg.RateLimitPerMinute,
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
		)
	}
	return middleware.NewMemoryRateLimiter(cfg.RateLimitPerMinute)
}
