package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultMailryBase = "https://api.mailry.co"
	mailrySendPath    = "/ext/inbox/send"
)

var reHTMLTag = regexp.MustCompile(`<[^>]+>`)

// MailryConfig configures the Mailry inbox API client.
type MailryConfig struct {
	APIKey string
	// APIBase defaults to https://api.mailry.co.
	APIBase string
	// SenderEmailID is the Mailry inbox id messages are sent from.
	SenderEmailID string
	// MaxRetries bounds retries of transport errors and 5xx responses.
	MaxRetries uint64
	HTTPClient *http.Client
}

// Mailry sends mail through POST {base}/ext/inbox/send.
type Mailry struct {
	endpoint   string
	apiKey     string
	emailID    string
	maxRetries uint64
	client     *http.Client
}

type mailryRequest struct {
	EmailID   string `json:"emailId"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	HTMLBody  string `json:"htmlBody,omitempty"`
	PlainBody string `json:"plainBody"`
}

// MailryError is returned for non-2xx responses.
type MailryError struct {
	Status int
	Body   string
}

func (e *MailryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("mailry: send failed with status %d", e.Status)
	}
	return fmt.Sprintf("mailry: send failed with status %d: %s", e.Status, e.Body)
}

func NewMailry(cfg MailryConfig) (*Mailry, error) {
	if cfg.APIKey == "" || cfg.SenderEmailID == "" {
		return nil, fmt.Errorf("%w: mailry api key or sender email id missing", ErrNotConfigured)
	}

	base := strings.TrimRight(cfg.APIBase, "/")
	if base == "" {
		base = defaultMailryBase
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Mailry{
		endpoint:   base + mailrySendPath,
		apiKey:     cfg.APIKey,
		emailID:    cfg.SenderEmailID,
		maxRetries: cfg.MaxRetries,
		client:     client,
	}, nil
}

// Send posts one request per recipient; the API accepts a single "to".
func (m *Mailry) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	plain := msg.TextBody
	if plain == "" {
		plain = reHTMLTag.ReplaceAllString(msg.HTMLBody, "")
	}

	for _, to := range msg.To {
		payload, err := json.Marshal(mailryRequest{
			EmailID:   m.emailID,
			To:        to,
			Subject:   msg.Subject,
			HTMLBody:  msg.HTMLBody,
			PlainBody: plain,
		})
		if err != nil {
			return err
		}

		backoff := retry.WithMaxRetries(m.maxRetries, retry.NewExponential(200*time.Millisecond))
		if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			return m.post(ctx, payload)
		}); err != nil {
			return err
		}
	}

	return nil
}

func (m *Mailry) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	mErr := &MailryError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return retry.RetryableError(mErr)
	}
	return mErr
}

func (m *Mailry) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
