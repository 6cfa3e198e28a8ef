package email

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/shandysiswandi/titipyuk/internal/pkg/cache"
	"github.com/shandysiswandi/titipyuk/internal/pkg/clock"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
	"github.com/shandysiswandi/titipyuk/internal/pkg/mail"
	"github.com/shandysiswandi/titipyuk/internal/pkg/storage"
	"github.com/shandysiswandi/titipyuk/internal/verification/usecase"
)

const (
	subject = "Kode Verifikasi TitipYuk"

	templateSizeLimit = 64 << 10
)

//go:embed template/verification_code.html
var defaultTemplate string

type Config struct {
	From string

	// Bucket and ObjectKey locate the HTML template in object storage. When
	// either is empty, or storage is nil, the embedded template is used.
	Bucket    string
	ObjectKey string
	CacheTTL  time.Duration
}

type Mail struct {
	client  mail.Mail
	storage storage.Storage
	cache   cache.Store
	clock   clock.Clocker
	cfg     Config
	ins     instrument.Instrumentation
}

// New accepts a nil client (no transport) and a nil storage (embedded
// template only).
func New(client mail.Mail, store storage.Storage, c cache.Store, clk clock.Clocker, cfg Config, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, storage: store, cache: c, clock: clk, cfg: cfg, ins: ins}
}

type templateData struct {
	Code       string
	TTLMinutes int
	ExpiresAt  time.Time
}

func (m *Mail) SendCode(ctx context.Context, msg usecase.CodeMail) error {
	ctx, span := m.ins.Tracer("verification.outbound.email").Start(ctx, "SendCode")
	defer span.End()

	if m.client == nil {
		return mail.ErrNotConfigured
	}

	minutes := int(msg.TTL / time.Minute)
	data := templateData{Code: msg.Code, TTLMinutes: minutes, ExpiresAt: msg.ExpiresAt}

	htmlBody, err := m.render(ctx, data)
	if err != nil {
		slog.WarnContext(ctx, "failed to render verification email html, sending text only", "error", err)
		htmlBody = ""
	}

	err = m.client.Send(ctx, mail.Message{
		From:     m.cfg.From,
		To:       []string{msg.Email},
		Subject:  subject,
		TextBody: fmt.Sprintf("Kode verifikasi kamu: %s (berlaku %d menit)", msg.Code, minutes),
		HTMLBody: htmlBody,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Mail) render(ctx context.Context, data templateData) (string, error) {
	t, err := template.New("verification_code").Option("missingkey=zero").Parse(m.loadTemplate(ctx))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// loadTemplate returns the stored template, served from cache while fresh. Any
// storage or cache failure falls back to the embedded copy.
func (m *Mail) loadTemplate(ctx context.Context) string {
	if m.storage == nil || m.cfg.Bucket == "" || m.cfg.ObjectKey == "" {
		return defaultTemplate
	}

	key := "verification_template:" + m.cfg.Bucket + "/" + m.cfg.ObjectKey
	now := m.clock.Now()

	entry, ok, err := m.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "failed to read template cache", "key", key, "error", err)
	}
	if ok && entry.Fresh(now, m.cfg.CacheTTL) {
		return string(entry.Value)
	}

	body, _, err := storage.ReadAll(ctx, m.storage, m.cfg.Bucket, m.cfg.ObjectKey, templateSizeLimit)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			slog.WarnContext(ctx, "verification template object missing, using embedded", "bucket", m.cfg.Bucket, "key", m.cfg.ObjectKey)
		} else {
			slog.ErrorContext(ctx, "failed to storage read verification template", "bucket", m.cfg.Bucket, "key", m.cfg.ObjectKey, "error", err)
		}
		if ok {
			return string(entry.Value)
		}
		return defaultTemplate
	}

	if err := m.cache.Set(ctx, key, cache.Entry{Value: body, StoredAt: now}); err != nil {
		slog.WarnContext(ctx, "failed to write template cache", "key", key, "error", err)
	}

	return string(body)
}
