package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/appleboy/graceful"

	"github.com/conductionnl/commonground-gateway/internal/config"
	"github.com/conductionnl/commonground-gateway/internal/core"
	"github.com/conductionnl/commonground-gateway/internal/services"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addLoginLogShutdownJob(m, app.LoginLog)
	addLoginLogCleanupJob(m, app.Config, app.LoginLog)
	addCacheShutdownJob(m, app.AppConfigCache)

	<-m.Done()
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addLoginLogShutdownJob adds login-log service shutdown handler
func addLoginLogShutdownJob(m *graceful.Manager, loginLog *services.LoginLogService) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down login log service...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := loginLog.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down login log service: %v", err)
			return err
		}
		return nil
	})
}

// addLoginLogCleanupJob adds periodic login-log retention cleanup
func addLoginLogCleanupJob(
	m *graceful.Manager,
	cfg *config.Config,
	loginLog *services.LoginLogService,
) {
	if !cfg.LoginLogEnabled || cfg.LoginLogRetention <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		// Run cleanup immediately on startup
		if deleted, err := loginLog.CleanupOldLogs(cfg.LoginLogRetention); err != nil {
			log.Printf("Failed to cleanup old login logs: %v", err)
		} else if deleted > 0 {
			log.Printf("Cleaned up %d old login logs", deleted)
		}

		for {
			select {
			case <-ticker.C:
				if deleted, err := loginLog.CleanupOldLogs(cfg.LoginLogRetention); err != nil {
					log.Printf("Failed to cleanup old login logs: %v", err)
				} else if deleted > 0 {
					log.Printf("Cleaned up %d old login logs", deleted)
				}
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addCacheShutdownJob adds cache close on shutdown
func addCacheShutdownJob(m *graceful.Manager, c core.Cache[[]string]) {
	if c == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := c.Close(); err != nil {
			log.Printf("Error closing application-config cache: %v", err)
			return err
		}
		log.Println("Application-config cache closed")
		return nil
	})
}
