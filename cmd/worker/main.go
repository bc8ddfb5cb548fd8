package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"rollcall/internal/config"
	"rollcall/internal/notify"
	"rollcall/internal/queue"
	"rollcall/internal/sms"
	"rollcall/internal/smsworker"
	"rollcall/internal/store"
)

// Worker consumes queued SMS batches and sends them.
func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.QueueBackend == "memory" {
		log.Fatal("worker needs QUEUE_BACKEND=redis; an in-memory queue is not shared with the API")
	}

	redisClient, err := store.NewRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatalf("invalid REDIS_ADDR: %v", err)
	}
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis at %s not reachable yet, will keep retrying", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, "")
	sender := sms.NewTwilio(sms.Config{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFrom,
		BaseURL:    cfg.TwilioBaseURL,
		Skip:       cfg.SMSSkip,
	})
	d := notify.NewDispatcher(sender,
		notify.Template{Signature: cfg.SMSSignature, ContactPhone: cfg.SMSContactPhone},
		notify.DispatchOptions{Interval: cfg.SMSInterval, Concurrency: cfg.SMSConcurrency},
	)

	log.Println("worker started, waiting for messages...")
	if err := smsworker.Run(ctx, q, d); err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker stopped")
}
