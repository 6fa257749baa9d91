package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cine-reservas/internal/bot"
	"github.com/iliyamo/cine-reservas/internal/config"
	"github.com/iliyamo/cine-reservas/internal/database"
	"github.com/iliyamo/cine-reservas/internal/handler"
	"github.com/iliyamo/cine-reservas/internal/middleware"
	"github.com/iliyamo/cine-reservas/internal/queue"
	"github.com/iliyamo/cine-reservas/internal/repository"
	"github.com/iliyamo/cine-reservas/internal/router"
	"github.com/iliyamo/cine-reservas/internal/sweeper"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boot, bootCancel := context.WithTimeout(ctx, 30*time.Second)
	defer bootCancel()

	if err := database.CreateTables(boot, db); err != nil {
		log.Fatalf("schema bootstrap failed: %v", err)
	}

	users := repository.NewUserRepo(db, cfg.UserCap, cfg.AccountTTL)
	seats := repository.NewSeatRepo(db)
	reservations := repository.NewReservationRepo(db)
	premium := repository.NewPremiumRepo(db, seats)
	tokens := repository.NewTokenRepo(db)

	if err := seats.Provision(boot); err != nil {
		log.Fatalf("seat provisioning failed: %v", err)
	}
	botID, err := users.EnsureBot(boot, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("bot account setup failed: %v", err)
	}
	sim := bot.New(seats, reservations, botID, nil)

	go sweeper.Run(ctx, users, cfg.SweepEvery)
	go queue.StartActivityConsumer()
	if cfg.BotInterval > 0 {
		go runBot(ctx, sim, cfg.BotInterval)
	}

	e := echo.New()
	e.HideBanner = true

	// Redis-backed middleware degrades to pass-through when Redis is
	// unreachable (nil client).
	rdb := config.NewRedisClient()
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	respCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Seats:        handler.NewSeatHandler(seats),
		Reservations: handler.NewReservationHandler(reservations),
		Premium:      handler.NewPremiumHandler(premium),
		Bot:          handler.NewBotHandler(sim),
		Stats:        handler.NewStatsHandler(users, seats, reservations),
	}
	router.RegisterRoutes(e)
	router.RegisterAPI(e, h, users, cfg.JWTSecret, rateLimit, respCache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// runBot drives the traffic simulator on a timer.
func runBot(ctx context.Context, sim *bot.Simulator, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			out := sim.Step(ctx)
			log.Printf("bot: %s ok=%t %s", out.Action, out.OK, out.Message)
		}
	}
}
