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

	"github.com/iliyamo/cinema-box-office/internal/booking"
	"github.com/iliyamo/cinema-box-office/internal/config"
	"github.com/iliyamo/cinema-box-office/internal/database"
	"github.com/iliyamo/cinema-box-office/internal/handler"
	"github.com/iliyamo/cinema-box-office/internal/middleware"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/queue"
	"github.com/iliyamo/cinema-box-office/internal/repository"
	"github.com/iliyamo/cinema-box-office/internal/router"
	"github.com/iliyamo/cinema-box-office/internal/sweeper"
)

func main() {
	// Local development reads .env; in production the variables come
	// from the process environment and the file is absent.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStartup()

	statuses, err := repository.LoadStatusSet(startupCtx, db)
	if err != nil {
		log.Fatalf("db: loading ticket statuses failed: %v", err)
	}

	showtimes := repository.NewShowtimeRepo(db)
	halls := repository.NewHallRepo(db)
	seats := repository.NewSeatRepo(db)
	rules := repository.NewPriceRuleRepo(db)
	tickets := repository.NewTicketRepo(db, statuses)
	payments := repository.NewPaymentRepo(db)
	customers := repository.NewCustomerRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	bootstrapAdmin(startupCtx, cfg, users)

	store := repository.NewStore(db, showtimes, rules, tickets, payments)
	svc := booking.NewService(store, statuses, booking.Config{
		Timeout: cfg.BookingTimeout,
		Price: booking.PriceConfig{
			SurchargeRate:    cfg.SurchargeRate,
			GuestCoefficient: cfg.GuestCoefficient,
		},
	})

	// Background reservation sweeper; stopped via ctx on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sw := sweeper.New(svc, cfg.SweepInterval)
	sw.Start(ctx)

	// Broker consumer runs for the life of the process and
	// reconnects on its own; a broker outage never blocks startup.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket-consumer: stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, users, tokens),
		Showtimes: handler.NewShowtimeHandler(showtimes, halls, seats, rules, svc),
		Tickets:   handler.NewTicketHandler(svc, tickets, payments, showtimes, customers),
		Customers: handler.NewCustomerHandler(customers),
		Reports:   handler.NewReportHandler(payments),
	}

	// Redis-backed rate limiting and response caching for the
	// browse endpoints.  Both middlewares no-op when redis is down.
	var browse []echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		browse = append(browse,
			middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
			middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		)
	}

	router.RegisterRoutes(e, h)
	router.RegisterBoxOffice(e, h, cfg.JWTSecret, browse...)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// Block until SIGINT/SIGTERM, then drain: stop accepting HTTP,
	// cancel the sweeper and wait for its loop to exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("server: shutdown: %v", err)
	}
	cancel()
	sw.Wait()
}

// bootstrapAdmin creates the initial MANAGER account when the users
// table is empty and ADMIN_EMAIL/ADMIN_PASSWORD are provided.
// There is no self-service registration, so a fresh deployment
// needs this to be able to log in at all.
func bootstrapAdmin(ctx context.Context, cfg config.Config, users *repository.UserRepo) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	n, err := users.Count(ctx)
	if err != nil {
		log.Fatalf("db: counting users failed: %v", err)
	}
	if n > 0 {
		return
	}
	id, err := users.Create(ctx, cfg.AdminEmail, cfg.AdminPassword, model.RoleManager, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("db: creating bootstrap manager failed: %v", err)
	}
	log.Printf("created bootstrap manager account %s (id=%d)", cfg.AdminEmail, id)
}
