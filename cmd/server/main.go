package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/stayhub/hotel-reservation/internal/config"
	"github.com/stayhub/hotel-reservation/internal/database"
	"github.com/stayhub/hotel-reservation/internal/handler"
	"github.com/stayhub/hotel-reservation/internal/mailer"
	"github.com/stayhub/hotel-reservation/internal/payment"
	"github.com/stayhub/hotel-reservation/internal/queue"
	"github.com/stayhub/hotel-reservation/internal/repository"
	"github.com/stayhub/hotel-reservation/internal/router"
	"github.com/stayhub/hotel-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	// Redis is optional: nil disables rate limiting and response caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and caching disabled")
	}

	identities := repository.NewIdentityRepo(db)
	hotels := repository.NewHotelRepo(db)

	mail := mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPUser, cfg.SMTPPass)
	provider := payment.NewClient(cfg.PaymentURL, cfg.PaymentKey)

	verification := service.NewVerificationService(identities, mail, cfg.BcryptCost)
	bookings := service.NewBookingService(hotels, provider, mail, queue.PublishBookingConfirmed, cfg.Currency)

	// Background consumer mirrors confirmed bookings into logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, identities, verification), config.LoadRateLimitConfig(), rdb)
	router.RegisterPublic(e, handler.NewHotelHandler(hotels), config.LoadCacheConfig(), rdb)
	router.RegisterBooking(e, handler.NewBookingHandler(bookings, hotels, identities), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
