// Command create-admin provisions an Admin account directly in the store.
// Self-registration never grants Admin. For in-memory deployments use
// EVIDENCE_BOOTSTRAP_ADMIN_EMAIL on the API instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/XiaoHuahai/group3/internal/auth"
	"github.com/XiaoHuahai/group3/internal/config"
	"github.com/XiaoHuahai/group3/internal/obs"
	"github.com/XiaoHuahai/group3/internal/store/pg"
)

var errUsage = errors.New("usage: create-admin -email <email> -password <password> [-name <name>]")

func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	name := flag.String("name", "", "display name")
	flag.Parse()

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

	if err := run(cfg, log, *email, *password, *name); err != nil {
		log.Error("create admin failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(cfg *config.Config, log *zap.Logger, email, password, name string) error {
	if email == "" || password == "" {
		return errUsage
	}
	if cfg.PGDSN == "" {
		return errors.New("EVIDENCE_PG_DSN is required; an in-memory admin would not outlive this process")
	}

	store, err := pg.Open(cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	tokens, err := auth.NewTokens(auth.TokenConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.JWTTTL})
	if err != nil {
		return err
	}
	svc, err := auth.NewService(store.Users(), tokens, auth.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	user, err := svc.CreateAdmin(ctx, email, password, name)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("admin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return nil
}
