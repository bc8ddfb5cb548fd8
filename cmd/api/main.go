package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/handler"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/notes"
	"rollcall/internal/notify"
	"rollcall/internal/queue"
	"rollcall/internal/roster"
	"rollcall/internal/sms"
	"rollcall/internal/smsworker"
	"rollcall/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDB(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		if db == nil {
			return err
		}
		log.Printf("warning: db not reachable: %v", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, db.Client); err != nil {
			return err
		}
	}

	redisClient, err := store.NewRedis(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var locker attendance.Locker
	if cfg.LockBackend == "memory" {
		locker = attendance.NewMemoryLocker(cfg.LockWait)
	} else {
		locker = attendance.NewRedisLocker(redisClient.Client, cfg.LockTTL, cfg.LockWait)
	}

	dispatcher := newDispatcher(cfg)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		mem := queue.NewInMemory(64)
		q = mem
		go func() {
			if err := smsworker.Run(ctx, mem, dispatcher); err != nil {
				log.Printf("in-process sms worker stopped: %v", err)
			}
		}()
		log.Println("queue backend is memory: async SMS sent in-process")
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	rosterRepo := roster.NewRepository(db.Client)
	att := attendance.NewService(
		attendance.NewRepository(db.Client),
		locker,
		notify.NewSelector(rosterRepo),
		dispatcher,
	)
	noteSvc := notes.NewService(notes.NewRepository(db.Client))

	h := handler.New(att, rosterRepo, noteSvc, dispatcher, q)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS(cfg.CORSOrigins))
	r.Use(httpmiddleware.SecurityHeaders(cfg.Production()))

	limiter := httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	r.Use(limiter.GinMiddleware(httpmiddleware.ByIP))
	go sweepLimiter(ctx, limiter)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	checks := map[string]func(context.Context) bool{"db": db.Healthy}
	if cfg.QueueBackend != "memory" || cfg.LockBackend != "memory" {
		checks["redis"] = redisClient.Healthy
	}
	r.GET("/healthz", handler.Healthz(checks))

	profiles := auth.NewProfileRepository(db.Client)
	h.Routes(r, handler.RouteOptions{
		PublicSMS: cfg.PublicSMSEnabled,
		Protect: []gin.HandlerFunc{
			auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer),
			auth.RequireRole(profiles, "admin", "teacher"),
		},
		Admin: []gin.HandlerFunc{auth.RequireRole(profiles, "admin")},
	})
	if cfg.PublicSMSEnabled {
		log.Println("warning: unauthenticated /api/send-absence-sms is enabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

func newDispatcher(cfg config.App) *notify.Dispatcher {
	sender := sms.NewTwilio(sms.Config{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFrom,
		BaseURL:    cfg.TwilioBaseURL,
		Skip:       cfg.SMSSkip,
	})
	return notify.NewDispatcher(sender,
		notify.Template{Signature: cfg.SMSSignature, ContactPhone: cfg.SMSContactPhone},
		notify.DispatchOptions{Interval: cfg.SMSInterval, Concurrency: cfg.SMSConcurrency},
	)
}

func sweepLimiter(ctx context.Context, l *httpmiddleware.TokenBucket) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			l.Sweep(10 * time.Minute)
		case <-ctx.Done():
			return
		}
	}
}
