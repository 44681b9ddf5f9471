package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/XiaoHuahai/group3/internal/migrate"
	"github.com/XiaoHuahai/group3/internal/obs"
	"github.com/XiaoHuahai/group3/migrations"
)

func main() {
	_ = godotenv.Load()
	dsn := flag.String("dsn", os.Getenv("EVIDENCE_PG_DSN"), "PostgreSQL DSN")
	flag.Parse()

	log, err := obs.NewLogger(os.Getenv("EVIDENCE_LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or EVIDENCE_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	mgr := migrate.NewManager(db, migrations.FS(), migrate.WithLogger(log))

	switch flag.Arg(0) {
	case "up":
		var applied []string
		applied, err = mgr.Up(ctx)
		if err == nil && len(applied) == 0 {
			log.Info("schema up to date")
		}
	case "down":
		_, err = mgr.Down(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	default:
		log.Fatal("unknown command", zap.String("command", flag.Arg(0)))
	}
	if err != nil {
		log.Fatal("migrate failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
}
