package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tripline/bus-seat-booking/internal/clock"
	"github.com/tripline/bus-seat-booking/internal/config"
	"github.com/tripline/bus-seat-booking/internal/database"
	"github.com/tripline/bus-seat-booking/internal/handler"
	"github.com/tripline/bus-seat-booking/internal/middleware"
	"github.com/tripline/bus-seat-booking/internal/notify"
	"github.com/tripline/bus-seat-booking/internal/queue"
	"github.com/tripline/bus-seat-booking/internal/repository"
	"github.com/tripline/bus-seat-booking/internal/router"
	"github.com/tripline/bus-seat-booking/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using process environment")
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and seat-map cache disabled")
	}

	store := repository.NewStore(db)
	seatRepo := repository.NewSeatRepo(store)
	bookingRepo := repository.NewBookingRepo(store)
	busRepo := repository.NewBusRepo(store)

	clk := clock.NewSystem()
	publisher := notify.NewPublisher(cfg.AMQPURL)
	holds := service.NewHoldService(seatRepo, clk, service.WithHoldTTL(cfg.HoldTTL))
	ledger := service.NewBookingService(seatRepo, bookingRepo, busRepo, publisher, clk)
	sweeper := service.NewSweeper(seatRepo, clk, cfg.SweepInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweeper.Run(ctx)
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartEmailConsumer(cfg.AMQPURL); err != nil {
				log.Printf("email consumer: %v", err)
			}
		}()
	}

	seatCache := middleware.NewSeatMapCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Deps{
		DB:           db,
		JWTSecret:    cfg.JWTSecret,
		Reservations: handler.NewReservationHandler(holds, ledger, busRepo, seatCache),
		Bookings:     handler.NewBookingHandler(ledger, bookingRepo, seatCache),
		Browse:       handler.NewBrowseHandler(seatRepo, busRepo, clk),
		Admin:        handler.NewAdminHandler(busRepo, seatRepo),
		RateLimit:    limiter,
		SeatCache:    seatCache,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s, hold ttl=%s)", addr, cfg.Env, holds.TTL())
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
