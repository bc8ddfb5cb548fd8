package notify

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"rollcall/internal/sms"
)

// Reason classifies a message that was not sent.
type Reason string

const (
	ReasonValidation    Reason = "validation"
	ReasonTransport     Reason = "transport"
	ReasonConfiguration Reason = "configuration"
	ReasonCanceled      Reason = "canceled"
)

// SMSResult is the outcome of one message in a dispatch batch.
type SMSResult struct {
	StudentID string `json:"studentId,omitempty"`
	To        string `json:"to"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
	Reason    Reason `json:"reason,omitempty"`
}

// DispatchResult aggregates a batch. Results follow input order.
type DispatchResult struct {
	Sent    int         `json:"sent"`
	Failed  int         `json:"failed"`
	Results []SMSResult `json:"results"`
}

// Success reports that at least one message got through. Partial failure
// has to be read from Failed.
func (r DispatchResult) Success() bool { return r.Sent > 0 }

// DispatchOptions tunes pacing against the provider rate limit.
type DispatchOptions struct {
	// Interval is the minimum spacing between transport calls. Zero disables pacing.
	Interval time.Duration
	// Concurrency caps in-flight transport calls. Values below 1 mean 1.
	Concurrency int
}

// Dispatcher sends notifications through an sms.Sender without retries.
type Dispatcher struct {
	sender      sms.Sender
	template    Template
	limiter     *rate.Limiter
	concurrency int
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(sender sms.Sender, tmpl Template, opts DispatchOptions) *Dispatcher {
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Dispatcher{
		sender:      sender,
		template:    tmpl,
		limiter:     rate.NewLimiter(limit, 1),
		concurrency: opts.Concurrency,
	}
}

// Dispatch sends every notification once. Individual failures never stop the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, batch []Notification) DispatchResult {
	results := make([]SMSResult, len(batch))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, n := range batch {
		i, n := i, n
		g.Go(func() error {
			results[i] = d.Send(ctx, n)
			return nil
		})
	}
	_ = g.Wait()

	out := DispatchResult{Results: results}
	for _, r := range results {
		if r.Success {
			out.Sent++
		} else {
			out.Failed++
		}
	}
	log.Printf("notify: dispatch done, %d sent, %d failed", out.Sent, out.Failed)
	return out
}

// Send validates and sends a single notification.
func (d *Dispatcher) Send(ctx context.Context, n Notification) SMSResult {
	res := SMSResult{StudentID: n.StudentID, To: n.To}

	if err := n.Validate(); err != nil {
		return d.fail(res, ReasonValidation, err)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return d.fail(res, ReasonCanceled, err)
	}

	id, err := d.sender.Send(ctx, sms.Message{To: n.To, Body: d.template.Render(n)})
	if err != nil {
		var cerr *sms.ConfigurationError
		if errors.As(err, &cerr) {
			return d.fail(res, ReasonConfiguration, err)
		}
		if ctx.Err() != nil {
			return d.fail(res, ReasonCanceled, err)
		}
		return d.fail(res, ReasonTransport, err)
	}

	smsSent.Inc()
	res.Success = true
	res.MessageID = id
	return res
}

func (d *Dispatcher) fail(res SMSResult, reason Reason, err error) SMSResult {
	log.Printf("notify: message for student %s not sent (%s): %v", res.StudentID, reason, err)
	smsFailed.WithLabelValues(string(reason)).Inc()
	res.Success = false
	res.Reason = reason
	res.Error = err.Error()
	return res
}
