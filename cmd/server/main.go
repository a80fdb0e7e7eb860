package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/railswap/train-seat-exchange/internal/config"
	"github.com/railswap/train-seat-exchange/internal/database"
	"github.com/railswap/train-seat-exchange/internal/handler"
	"github.com/railswap/train-seat-exchange/internal/matching"
	"github.com/railswap/train-seat-exchange/internal/queue"
	"github.com/railswap/train-seat-exchange/internal/repository"
	"github.com/railswap/train-seat-exchange/internal/router"
	"github.com/railswap/train-seat-exchange/internal/service"
	"github.com/railswap/train-seat-exchange/internal/store"
)

func main() {
	// Load .env if present; real deployments set the variables
	// directly.
	_ = godotenv.Load()

	cfg := config.Load()
	matchCfg := config.LoadMatchingConfig()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the suggestion cache, the OTP store and the rate
	// limiter. Without it the server still runs: stores fall back to
	// memory and rate limiting is disabled.
	rdb := config.NewRedisClient()
	var kv store.Store
	if rdb != nil {
		kv = store.NewRedis(rdb, "railswap")
	} else {
		log.Println("redis unavailable, using in-memory store")
		kv = store.NewMemory()
	}

	users := repository.NewUserRepo(db)
	tickets := repository.NewTicketRepo(db)
	exchanges := repository.NewExchangeRepo(db)
	tokens := repository.NewTokenRepo(db)

	suggestions := service.NewSuggestionStore(kv, matchCfg.SuggestionTTL)
	otp := service.NewOTPService(kv, matchCfg, cfg.BcryptCost, cfg.Debug())
	matchSvc := service.NewMatchService(tickets, users, suggestions, matching.CohesionEnhancer{}, matchCfg)
	exchangeSvc := service.NewExchangeService(db, exchanges, tickets, users)
	optimizer := matching.NewOptimizer(matchCfg.SolverBackend)
	adminSvc := service.NewAdminMatchingService(matchSvc, optimizer, matchCfg.SolverWorkers)

	authH := handler.NewAuthHandler(users, tokens, otp, cfg)
	ticketH := handler.NewTicketHandler(tickets)
	matchH := handler.NewMatchHandler(matchSvc)
	exchangeH := handler.NewExchangeHandler(exchangeSvc)
	adminH := handler.NewAdminMatchingHandler(adminSvc)

	e := echo.New()
	e.HideBanner = true

	rl := router.NewRateLimiter(rlCfg, rdb)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, rl)
	router.RegisterAPI(e, ticketH, matchH, exchangeH, cfg.JWTSecret, rl)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// The consumer records completed exchanges and reconnects on its
	// own; it must never take the API down.
	go func() {
		if err := queue.StartExchangeConsumer(); err != nil {
			log.Printf("exchange consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, solver=%s)", addr, cfg.Env, optimizer.Backend())
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
