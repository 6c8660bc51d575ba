// Package app wires configuration, storage and HTTP routes into a runnable
// storefront server.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/openstorelab/storefront/internal/config"
	"github.com/openstorelab/storefront/internal/db"
	"github.com/openstorelab/storefront/internal/http/api/admin"
	"github.com/openstorelab/storefront/internal/http/api/front"
	"github.com/openstorelab/storefront/internal/idempotency"
	"github.com/openstorelab/storefront/internal/voucher"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg *config.Config) error {
	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the storefront HTTP server and blocks until ctx is
// cancelled or the listener fails.
func RunServer(ctx context.Context, cfg *config.Config) error {
	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	tokens, errTokens := buildTokenStore(ctx, cfg.Redis)
	if errTokens != nil {
		return errTokens
	}
	service := voucher.NewService(conn, tokens)

	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogMiddleware())

	admin.RegisterAdminRoutes(engine, conn, cfg.JWT, service)
	front.RegisterFrontRoutes(engine, conn, cfg.JWT, service)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		log.Info("server stopped")
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// buildTokenStore connects the redemption token store. Without a configured
// redis address the in-process store is used, which is only safe for a
// single server instance.
func buildTokenStore(ctx context.Context, cfg config.RedisConfig) (idempotency.TokenStore, error) {
	if cfg.Addr == "" {
		log.Warn("redis not configured, using in-process redemption token store")
		return idempotency.NewMemoryStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if errPing := client.Ping(pingCtx).Err(); errPing != nil {
		return nil, errPing
	}
	return idempotency.NewRedisStore(client), nil
}

// requestLogMiddleware logs each request with method, path, status and
// duration.
func requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Info("request")
	}
}
