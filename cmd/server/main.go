package main // Entry point package

import (
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ticket-reservation/internal/config"
    "github.com/iliyamo/ticket-reservation/internal/database"
    "github.com/iliyamo/ticket-reservation/internal/handler"
    "github.com/iliyamo/ticket-reservation/internal/identity"
    "github.com/iliyamo/ticket-reservation/internal/middleware"
    "github.com/iliyamo/ticket-reservation/internal/queue"
    "github.com/iliyamo/ticket-reservation/internal/repository"
    "github.com/iliyamo/ticket-reservation/internal/router"
    "github.com/iliyamo/ticket-reservation/internal/service"
)

func main() {
    _ = godotenv.Load() // optional .env for local development
    cfg := config.Load()

    // Primary pool: transactions and FOR UPDATE reads.
    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    // Read-only pool for plain query paths; falls back to the primary
    // connection parameters when no replica is configured.
    ro, err := database.Open(cfg.RODBUser, cfg.RODBPass, cfg.RODBHost, cfg.RODBPort, cfg.RODBName)
    if err != nil {
        log.Fatalf("read-only database: %v", err)
    }

    rdb := config.NewRedisClient() // may be nil; caching and rate limiting degrade gracefully

    tickets := repository.NewTicketRepo(db, ro)
    lines := repository.NewTicketLineRepo(db, ro)
    orders := repository.NewOrderRepo(db, ro)

    ticketSvc := service.NewTicketService(db, tickets, lines)
    engine := service.NewOrderEngine(db, tickets, lines, orders)

    var resolver middleware.Resolver
    if cfg.IdentityURL != "" {
        resolver = identity.New(
            cfg.IdentityURL,
            time.Duration(cfg.IdentityTimeoutSec)*time.Second,
            rdb,
            time.Duration(cfg.IdentityCacheMin)*time.Minute,
        )
    }

    e := echo.New()
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    // The response cache is scoped to the public ticket reads inside
    // RegisterTickets; order routes are per-user and never cached.
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterTickets(e, handler.NewTicketHandler(ticketSvc, tickets, lines), cache)
    router.RegisterOrders(e, handler.NewOrderHandler(engine, orders), cfg.JWTSecret, resolver)

    // Background consumer mirrors confirmed orders into logs/orders.log.
    go func() {
        if err := queue.StartOrderConsumer(); err != nil {
            log.Printf("order consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
