package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nkiryanov/accountd/internal/db"
	"github.com/nkiryanov/accountd/internal/handlers"
	"github.com/nkiryanov/accountd/internal/logger"
	"github.com/nkiryanov/accountd/internal/repository"
	"github.com/nkiryanov/accountd/internal/repository/postgres"
	"github.com/nkiryanov/accountd/internal/service/auth"
	"github.com/nkiryanov/accountd/internal/service/user"
)

// How often expired blacklist entries are purged
const blacklistGCInterval = 12 * time.Hour

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger    logger.Logger
	blacklist repository.TokenBlacklistRepo
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	// The blacklist may live in a separate database so several service
	// instances behind a load balancer always share one revocation set
	storage := postgres.NewStorage(pool)
	blacklistRepo := storage.Blacklist()
	if c.BlacklistDSN != "" && c.BlacklistDSN != c.DatabaseDSN {
		blacklistPool, err := db.ConnectAndMigrate(ctx, c.BlacklistDSN)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to blacklist db. Err: %w", err)
		}
		blacklistRepo = postgres.NewStorage(blacklistPool).Blacklist()
	}

	// Initialize services
	tokenService, err := auth.NewTokenService(auth.TokenServiceConfig{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	}, blacklistRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating token service. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{}, tokenService, storage.User())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(storage.User())

	mux := handlers.NewRouter(
		authService,
		userService,
		c.CORSOrigins,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     logger,
		blacklist:  blacklistRepo,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go s.purgeExpiredTokens(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

// Purge blacklist entries for naturally expired tokens now and then.
// An expired token fails validation on its own, this only keeps the
// table from growing forever.
func (s *ServerApp) purgeExpiredTokens(ctx context.Context) {
	ticker := time.NewTicker(blacklistGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.blacklist.DeleteExpired(ctx, time.Now())
			if err != nil {
				s.logger.Error("error while purging expired blacklist entries", "error", err)
				continue
			}
			s.logger.Info("purged expired blacklist entries", "count", deleted)
		}
	}
}
