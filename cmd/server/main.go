package main // Entry point package

import (
    "context"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "clubaccess/internal/access"
    "clubaccess/internal/audit"
    "clubaccess/internal/config"
    "clubaccess/internal/database"
    "clubaccess/internal/handler"
    "clubaccess/internal/middleware"
    "clubaccess/internal/offline"
    "clubaccess/internal/queue"
    "clubaccess/internal/repository"
    "clubaccess/internal/router"
)

func main() {
    _ = godotenv.Load() // .env is optional; real deployments use the environment
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("open database: %v", err)
    }

    rdb := config.NewRedisClient()
    if rdb == nil {
        // The rate limiter can degrade without Redis, the offline scan
        // buffer cannot: a gate that drops scans is worse than one that
        // refuses to start.
        log.Fatal("redis unavailable: the offline scan queue requires it")
    }

    members := repository.NewMemberRepo(db)
    vehicles := repository.NewVehicleRepo(db)
    visits := repository.NewVisitRepo(db)
    events := repository.NewCardEventRepo(db)
    notifications := repository.NewNotificationRepo(db)
    payments := repository.NewPaymentRepo(db)
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)

    emitter := audit.NewEmitter(events, notifications, cfg.StationID)
    scanQueue, err := offline.NewQueue(rdb, cfg.StationID)
    if err != nil {
        log.Fatalf("offline queue: %v", err)
    }
    engine := access.New(members, vehicles, visits, emitter, scanQueue, cfg.VehiclePolicy)

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    // Drain buffered scans at startup and after every reconnection.
    monitor := offline.NewMonitor(scanQueue, engine, func() bool { return database.Reachable(db) }, 0)
    go monitor.Run(ctx)

    // Mirror the scan trail into logs/access.log via the broker.
    go func() {
        if err := queue.StartAccessConsumer(); err != nil {
            log.Printf("access-consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret, limiter)
    router.RegisterGate(e, handler.NewScanHandler(engine, scanQueue, visits, events), cfg.JWTSecret, limiter)
    router.RegisterAdmin(e, handler.NewMemberHandler(cfg, members, users), handler.NewVehicleHandler(vehicles, members), cfg.JWTSecret)
    router.RegisterCashier(e, handler.NewPaymentHandler(payments, members, notifications), cfg.JWTSecret)
    router.RegisterNotifications(e, handler.NewNotificationHandler(notifications), cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s station=%s policy=%s)", addr, cfg.Env, cfg.StationID, cfg.VehiclePolicy)

    go func() {
        if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
            log.Fatal(err)
        }
    }()

    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}
