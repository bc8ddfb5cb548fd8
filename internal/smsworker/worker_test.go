package smsworker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/notify"
	"rollcall/internal/queue"
)

type recordingDispatcher struct {
	got    chan []notify.Notification
	ctxErr chan error
	during func()
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{got: make(chan []notify.Notification, 4), ctxErr: make(chan error, 4)}
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, batch []notify.Notification) notify.DispatchResult {
	if r.during != nil {
		r.during()
	}
	r.ctxErr <- ctx.Err()
	r.got <- batch
	return notify.DispatchResult{Sent: len(batch)}
}

const body = `[{"to":"+33612345678","studentName":"Sarah HADJIMI","className":"D"}]`

func TestProcess(t *testing.T) {
	d := newRecordingDispatcher()

	res, err := Process(context.Background(), d, queue.Message{ID: "1", Type: queue.TypeSMSBatch, Body: json.RawMessage(body)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	batch := <-d.got
	require.Len(t, batch, 1)
	assert.Equal(t, "Sarah HADJIMI", batch[0].StudentName)
}

func TestProcess_Rejects(t *testing.T) {
	d := newRecordingDispatcher()

	_, err := Process(context.Background(), d, queue.Message{Type: "checkin", Body: json.RawMessage(`[]`)})
	assert.Error(t, err)

	_, err = Process(context.Background(), d, queue.Message{Type: queue.TypeSMSBatch, Body: json.RawMessage(`{"to":1}`)})
	assert.Error(t, err)
	assert.Empty(t, d.got)
}

func TestRun_InMemoryQueue(t *testing.T) {
	q := queue.NewInMemory(4)
	d := newRecordingDispatcher()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, q, d) }()

	require.NoError(t, q.Publish(ctx, queue.Message{ID: "1", Type: queue.TypeSMSBatch, Body: json.RawMessage(body)}))
	select {
	case batch := <-d.got:
		assert.Len(t, batch, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("batch not dispatched")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRun_FinishesBatchAfterShutdown(t *testing.T) {
	q := queue.NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := newRecordingDispatcher()
	d.during = cancel

	done := make(chan error, 1)
	go func() { done <- Run(ctx, q, d) }()
	require.NoError(t, q.Publish(context.Background(), queue.Message{ID: "1", Type: queue.TypeSMSBatch, Body: json.RawMessage(body)}))

	select {
	case err := <-d.ctxErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("batch not dispatched")
	}
	<-done
}
