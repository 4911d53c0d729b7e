package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anjiri1684/skill_bridge/cache"
	config "github.com/anjiri1684/skill_bridge/configs"
	"github.com/anjiri1684/skill_bridge/database"
	"github.com/anjiri1684/skill_bridge/events"
	"github.com/anjiri1684/skill_bridge/handlers"
	"github.com/anjiri1684/skill_bridge/jobs"
	"github.com/anjiri1684/skill_bridge/middleware"
	"github.com/anjiri1684/skill_bridge/notifications"
	"github.com/anjiri1684/skill_bridge/routes"
	"github.com/anjiri1684/skill_bridge/services"
	"github.com/anjiri1684/skill_bridge/utils"
	"github.com/anjiri1684/skill_bridge/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	utils.InitLogger(cfg.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	if err := database.SeedAdmin(ctx, db, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin")
	}
	store := database.NewStore(db)
	loc := cfg.Location()

	rdb := cache.NewRedisClient(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	sinks := events.Multi{hub}
	if cfg.RabbitMQURL != "" {
		amqpPub := events.NewAMQPPublisher(cfg.RabbitMQURL)
		defer amqpPub.Close()
		sinks = append(sinks, amqpPub)
	}
	if brevo := notifications.NewBrevoService(cfg.BrevoAPIKey, cfg.EmailSender, cfg.EmailSenderName); brevo != nil {
		notifier := notifications.NewEmailNotifier(brevo, store, 256)
		go notifier.Run(ctx)
		sinks = append(sinks, notifier)
	} else {
		log.Warn().Msg("Brevo credentials missing, email notifications disabled")
	}

	var media services.MediaStore
	var signer handlers.UploadSigner
	if cfg.CloudinaryURL != "" {
		cld, err := services.NewCloudinary(cfg.CloudinaryURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Cloudinary")
		}
		media, signer = cld, cld
	}

	authSvc := services.NewAuthService(store, cfg.JWTSecret, cfg.JWTTTL)
	tutorSvc := services.NewTutorService(store, cache.NewCategories(rdb, cfg.CategoryCacheTTL))
	availabilitySvc := services.NewAvailabilityService(store)
	bookingSvc := services.NewBookingService(store, services.BookingOptions{
		Location:      loc,
		GraceMinutes:  cfg.CompletionGraceMinutes,
		RequireWindow: cfg.RequireAvailabilityWindow,
		Publisher:     sinks,
	})
	reviewSvc := services.NewReviewService(store, sinks)
	receiptSvc := services.NewReceiptService(store, services.ChromePDF{Timeout: 30 * time.Second}, media, loc)

	reminders := &jobs.ReminderJob{
		Bookings:  store,
		Publisher: sinks,
		Claims:    cache.NewClaims(rdb, "skill_bridge:reminder:"),
		Location:  loc,
		Lead:      cfg.ReminderLead,
	}
	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := reminders.Schedule(ctx, scheduler, cfg.ReminderCron); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ReminderCron).Msg("invalid reminder schedule")
	}
	scheduler.Start()
	log.Info().Str("schedule", cfg.ReminderCron).Msg("session reminder job scheduled")

	app := fiber.New(fiber.Config{
		AppName:       "Skill Bridge",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler:  handlers.ErrorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition, X-Receipt-URL",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   cfg.BookingTimeZone,
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	guards := routes.Guards{
		Auth:   middleware.Protected(cfg.JWTSecret),
		Active: middleware.ActiveAccount(store),
	}
	timeout := cfg.RequestTimeout
	routes.AuthRoutes(app, handlers.NewAuthHandler(authSvc, timeout), guards)
	routes.TutorRoutes(app, handlers.NewTutorHandler(tutorSvc, reviewSvc, timeout), guards)
	routes.AvailabilityRoutes(app, handlers.NewAvailabilityHandler(availabilitySvc, timeout), guards)
	routes.BookingRoutes(app, handlers.NewBookingHandler(bookingSvc, reviewSvc, receiptSvc, timeout), guards)
	routes.ReviewRoutes(app, handlers.NewReviewHandler(reviewSvc, timeout), guards)
	routes.AdminRoutes(app, handlers.NewAdminHandler(authSvc, tutorSvc, reviewSvc, timeout), guards)
	routes.UploadRoutes(app, handlers.NewUploadHandler(signer), guards)
	routes.WebsocketRoutes(app, handlers.NewWSHandler(ctx, hub, cfg.JWTSecret))

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		<-scheduler.Stop().Done()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("server is running")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
