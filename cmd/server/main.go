package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/staff-auth/internal/config"
	"github.com/iliyamo/staff-auth/internal/database"
	"github.com/iliyamo/staff-auth/internal/handler"
	"github.com/iliyamo/staff-auth/internal/queue"
	"github.com/iliyamo/staff-auth/internal/repository"
	"github.com/iliyamo/staff-auth/internal/router"
	"github.com/iliyamo/staff-auth/internal/seed"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	// One-time CSV bootstrap. A failed import is logged but does not
	// stop the server; an absent file is skipped inside ImportUsers.
	if err := seed.ImportUsers(ctx, db, cfg.CSVFilePath); err != nil {
		log.Printf("seed: import failed: %v", err)
	}

	// Background consumer for login audit events.
	go func() {
		if err := queue.StartLoginConsumer(); err != nil {
			log.Printf("login-consumer stopped: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	history := repository.NewHistoryRepo(db)

	rdb := config.NewRedisClient() // nil disables the response cache
	cacheCfg := config.LoadCacheConfig()

	e := echo.New()
	router.RegisterRoutes(e, cfg.CORSOrigin)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, db, users, roles, history), cfg)
	router.RegisterRoles(e, handler.NewRoleHandler(users, roles), cfg, cacheCfg, rdb)
	router.RegisterHistory(e, handler.NewHistoryHandler(history), cfg)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
