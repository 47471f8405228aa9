package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harunrashid4419/doctors-portal-server/internal/auth"
	"github.com/harunrashid4419/doctors-portal-server/internal/cache"
	"github.com/harunrashid4419/doctors-portal-server/internal/config"
	"github.com/harunrashid4419/doctors-portal-server/internal/db"
	"github.com/harunrashid4419/doctors-portal-server/internal/events"
	"github.com/harunrashid4419/doctors-portal-server/internal/handlers"
	"github.com/harunrashid4419/doctors-portal-server/internal/middleware"
	"github.com/harunrashid4419/doctors-portal-server/internal/models"
	"github.com/harunrashid4419/doctors-portal-server/internal/notifications"
	"github.com/harunrashid4419/doctors-portal-server/internal/payments"
	"github.com/harunrashid4419/doctors-portal-server/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
			if err != nil {
				logger.Error("redis connection failed", slog.String("error", err.Error()))
				os.Exit(1)
			}
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret: []byte(cfg.JWTSecret),
			TTL:    time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			Issuer: "doctors-portal-server",
		}
	} else {
		logger.Warn("jwt disabled: no access token secret")
	}

	mailer := notifications.NewMailgunClient(cfg.MailgunAPIKey, cfg.MailgunDomain, cfg.MailgunSender)
	if mailer == nil {
		logger.Info("mailgun mailer disabled")
	} else {
		logger.Info("mailgun mailer enabled", slog.String("domain", cfg.MailgunDomain))
	}

	var publisher *events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		logger.Info("kafka publisher enabled", slog.String("topic", cfg.KafkaTopic))
	}

	stripeClient := payments.NewStripeClient(cfg.StripeSecretKey)
	if stripeClient == nil {
		logger.Info("stripe payments disabled")
	}

	server := &handlers.Server{
		Cfg:    cfg,
		Cols:   cols,
		Val:    validation.New(),
		Log:    logger,
		Cache:  cacheStore,
		JWT:    jwtManager,
		Events: publisher,
	}
	if mailer != nil {
		server.Mailer = mailer
	}
	if stripeClient != nil {
		server.Intents = stripeClient
	}

	roleLookup := func(ctx context.Context, email string) (string, error) {
		var user models.User
		if err := cols.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			if err == mongo.ErrNoDocuments {
				return "", nil
			}
			return "", err
		}
		return user.Role, nil
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	bookingsLimiter := middleware.NewRateLimiter(cfg.RateLimitBookings, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	usersLimiter := middleware.NewRateLimiter(cfg.RateLimitUsers, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("doctors portal is running"))
	})

	r.Get("/appointment", server.GetAvailability)
	r.Get("/bookingSpecialty", server.GetSpecialties)

	r.With(middleware.RequireAuth(jwtManager)).Get("/bookings", server.ListBookings)
	r.Get("/bookings/{id}", server.GetBooking)
	r.With(bookingsLimiter.Middleware).Post("/bookings", server.CreateBooking)

	r.Post("/create-payment-intent", server.CreatePaymentIntent)
	r.Post("/payments", server.RecordPayment)

	r.Get("/jwt", server.IssueToken)
	r.With(usersLimiter.Middleware).Post("/users", server.CreateUser)
	r.Get("/users", server.ListUsers)
	r.Get("/users/admin/{email}", server.CheckAdmin)
	r.With(middleware.RequireAuth(jwtManager), middleware.RequireAdmin(roleLookup)).
		Put("/users/admin/{id}", server.PromoteAdmin)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAuth(jwtManager))
		admin.Use(middleware.RequireAdmin(roleLookup))
		admin.Get("/doctors", server.ListDoctors)
		admin.Post("/doctors", server.CreateDoctor)
		admin.Delete("/doctors/{id}", server.DeleteDoctor)
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
