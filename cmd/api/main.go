package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/XiaoHuahai/group3/internal/article"
	"github.com/XiaoHuahai/group3/internal/auth"
	"github.com/XiaoHuahai/group3/internal/config"
	"github.com/XiaoHuahai/group3/internal/httpapi"
	"github.com/XiaoHuahai/group3/internal/obs"
	"github.com/XiaoHuahai/group3/internal/store/pg"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := obs.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("service stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	var (
		users    auth.UserStore
		articles article.Store
		db       *sql.DB
	)
	if cfg.PGDSN != "" {
		store, err := pg.Open(cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer store.Close()
		users, articles, db = store.Users(), store.Articles(), store.DB()
		log.Info("using postgres storage")
	} else {
		users, articles = auth.NewInMemoryUsers(), article.NewInMemory()
		log.Warn("EVIDENCE_PG_DSN not set, data is kept in memory")
	}

	tokens, err := auth.NewTokens(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	})
	if err != nil {
		return err
	}
	authSvc, err := auth.NewService(users, tokens, auth.WithLogger(log))
	if err != nil {
		return err
	}
	if err := bootstrapAdmin(authSvc, cfg, log); err != nil {
		return err
	}
	articleSvc, err := article.NewService(articles, article.WithLogger(log))
	if err != nil {
		return err
	}

	probe := httpapi.ReadyProbe{DB: db}
	api := httpapi.New(authSvc, articleSvc, probe, version,
		httpapi.WithLogger(log),
		httpapi.WithAllowedOrigins(cfg.CORSOrigins),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	health := httpapi.NewHealthServer(probe, log)
	grpcSrv := httpapi.NewGRPCServer(health)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go health.Run(ctx, 5*time.Second)
	go func() {
		log.Info("grpc health listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() {
		log.Info("starting evidence-api", zap.String("version", version), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	grpcSrv.GracefulStop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("stopped")
	return nil
}

// bootstrapAdmin ensures the configured Admin exists. Without one an
// in-memory deployment has nobody able to grant roles.
func bootstrapAdmin(svc *auth.Service, cfg *config.Config, log *zap.Logger) error {
	if cfg.BootstrapAdminEmail == "" {
		if cfg.PGDSN == "" {
			log.Warn("no bootstrap admin configured; roles cannot be granted in memory mode")
		}
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	user, created, err := svc.EnsureAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword, cfg.BootstrapAdminName)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	log.Info("bootstrap admin ready",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
		zap.Bool("created", created),
	)
	return nil
}
