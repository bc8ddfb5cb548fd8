package sms

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// DefaultBaseURL is the Twilio REST API root.
const DefaultBaseURL = "https://api.twilio.com"

// Message is one outbound text message.
type Message struct {
	To   string
	Body string
}

// Sender sends a message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ConfigurationError reports a missing credential, detected on first use.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return "sms: missing configuration " + e.Key
}

// TransportError is a failed or rejected send.
type TransportError struct {
	Status  int
	Code    int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return "sms: request failed: " + e.Err.Error()
	}
	if e.Code != 0 {
		return fmt.Sprintf("sms: provider error %d (%d): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("sms: provider error %d: %s", e.Status, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Config holds the Twilio account settings.
type Config struct {
	AccountSID string
	AuthToken  string
	From       string
	// BaseURL overrides the API host, for a proxy or a test server.
	BaseURL string
	Skip    bool
}

// TwilioClient sends SMS through the Twilio Messages API.
type TwilioClient struct {
	cfg  Config
	rest *twilio.RestClient
}

// NewTwilio creates a client with a bounded request timeout.
func NewTwilio(cfg Config) *TwilioClient {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	if base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/")); err == nil && cfg.BaseURL != "" && cfg.BaseURL != DefaultBaseURL {
		httpClient.Transport = hostRewrite{base: base, next: http.DefaultTransport}
	}

	c := &twclient.Client{
		Credentials: twclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  httpClient,
	}
	c.SetAccountSid(cfg.AccountSID)

	return &TwilioClient{
		cfg:  cfg,
		rest: twilio.NewRestClientWithParams(twilio.ClientParams{Client: c}),
	}
}

// Send posts one message. Credentials are checked here rather than at startup.
// The SDK call takes no context, so cancellation is only honored before the request.
func (c *TwilioClient) Send(ctx context.Context, msg Message) (string, error) {
	if c.cfg.Skip {
		id := "SMskip" + strings.ReplaceAll(uuid.NewString(), "-", "")
		log.Printf("sms: skip mode, not sending to %s (id %s)", msg.To, id)
		return id, nil
	}
	if c.cfg.AccountSID == "" {
		return "", &ConfigurationError{Key: "TWILIO_ACCOUNT_SID"}
	}
	if c.cfg.AuthToken == "" {
		return "", &ConfigurationError{Key: "TWILIO_AUTH_TOKEN"}
	}
	if c.cfg.From == "" {
		return "", &ConfigurationError{Key: "TWILIO_PHONE_NUMBER"}
	}
	if err := ctx.Err(); err != nil {
		return "", &TransportError{Err: err}
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(c.cfg.From)
	params.SetBody(msg.Body)

	resp, err := c.rest.Api.CreateMessage(params)
	if err != nil {
		var rerr *twclient.TwilioRestError
		if errors.As(err, &rerr) {
			return "", &TransportError{Status: rerr.Status, Code: rerr.Code, Message: rerr.Message}
		}
		return "", &TransportError{Err: err}
	}
	if resp == nil || resp.Sid == nil || *resp.Sid == "" {
		return "", &TransportError{Message: "response has no message sid"}
	}
	return *resp.Sid, nil
}

// hostRewrite sends SDK requests to another scheme and host, keeping the path.
type hostRewrite struct {
	base *url.URL
	next http.RoundTripper
}

func (t hostRewrite) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.base.Scheme
	r.URL.Host = t.base.Host
	r.Host = t.base.Host
	return t.next.RoundTrip(r)
}
