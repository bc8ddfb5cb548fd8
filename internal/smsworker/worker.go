package smsworker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"rollcall/internal/notify"
	"rollcall/internal/queue"
)

// Dispatcher sends a batch of notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context, batch []notify.Notification) notify.DispatchResult
}

// Process dispatches one queued batch. Failed messages are not requeued.
func Process(ctx context.Context, d Dispatcher, msg queue.Message) (notify.DispatchResult, error) {
	if msg.Type != queue.TypeSMSBatch {
		return notify.DispatchResult{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
	var batch []notify.Notification
	if err := json.Unmarshal(msg.Body, &batch); err != nil {
		return notify.DispatchResult{}, fmt.Errorf("decode batch: %w", err)
	}
	return d.Dispatch(ctx, batch), nil
}

// Run consumes q until ctx is done. A batch already taken off the queue is
// sent to the end, since the queue no longer holds it.
func Run(ctx context.Context, q queue.Queue, d Dispatcher) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		res, err := Process(context.WithoutCancel(ctx), d, msg)
		if err != nil {
			log.Printf("smsworker: message %s dropped: %v", msg.ID, err)
			continue
		}
		log.Printf("smsworker: message %s: %d sent, %d failed (queued %s ago)",
			msg.ID, res.Sent, res.Failed, time.Since(msg.EnqueuedAt).Round(time.Millisecond))
	}
	return nil
}
