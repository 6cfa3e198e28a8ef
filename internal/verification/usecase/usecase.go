package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/titipyuk/internal/pkg/clock"
	"github.com/shandysiswandi/titipyuk/internal/pkg/config"
	"github.com/shandysiswandi/titipyuk/internal/pkg/hash"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
	"github.com/shandysiswandi/titipyuk/internal/pkg/otp"
	"github.com/shandysiswandi/titipyuk/internal/pkg/uid"
	"github.com/shandysiswandi/titipyuk/internal/pkg/validator"
	"github.com/shandysiswandi/titipyuk/internal/verification/entity"
)

// activeTokenLookupLimit bounds the active-token read; only the newest row is
// used, the rest only shows up in logs.
const activeTokenLookupLimit = 3

type CodeMail struct {
	Email     string
	Code      string
	ExpiresAt time.Time
	TTL       time.Duration
}

type repoDB interface {
	GetPrincipalByEmail(ctx context.Context, email string) (*entity.Principal, error)
	GetLatestTokenByEmail(ctx context.Context, email string) (*entity.OTPToken, error)
	GetActiveTokensByEmail(ctx context.Context, email string, now time.Time, limit int) ([]entity.OTPToken, error)

	CreateToken(ctx context.Context, token entity.OTPToken) error
	IncrementAttempts(ctx context.Context, tokenID int64) (int32, error)
	MarkTokenUsedAndVerify(ctx context.Context, tokenID, principalID int64, now time.Time) error
}

type repoMessaging interface {
	PublishCodeIssued(ctx context.Context, msg entity.IssuedCode) error
	PublishEmailVerified(ctx context.Context, msg entity.VerifiedEmail) error
}

type repoMail interface {
	SendCode(ctx context.Context, msg CodeMail) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	repoMail      repoMail
	validator     validator.Validator
	cfg           config.Config
	hasher        hash.Hash
	code          otp.Generator
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation

	// exposeDevCode is decided once: opt-in flag AND non-production env.
	exposeDevCode bool

	issuedCounter   metric.Int64Counter
	verifiedCounter metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RepoMail      repoMail
	Validator     validator.Validator
	Config        config.Config
	Hasher        hash.Hash
	Code          otp.Generator
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		repoMail:      dep.RepoMail,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hasher:        dep.Hasher,
		code:          dep.Code,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		exposeDevCode: DevCodeExposed(dep.Config),
	}

	meter := dep.Instrument.Meter("verification.usecase")
	uc.issuedCounter = newCounter(meter, "verification.codes.issued", "Number of verification codes issued")
	uc.verifiedCounter = newCounter(meter, "verification.codes.verified", "Number of emails verified by code")

	if uc.exposeDevCode {
		slog.Warn("verification codes are echoed in responses", "env", dep.Config.GetString("app.env"))
	}

	return uc
}

// DevCodeExposed reports whether plaintext codes may be echoed back. Both the
// explicit opt-in and a non-production environment are required.
func DevCodeExposed(cfg config.Config) bool {
	env := strings.ToLower(strings.TrimSpace(cfg.GetString("app.env")))
	return cfg.GetBool("verification.debug_echo_code") && env != "" && env != "production" && env != "prod"
}

func newCounter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("failed to create counter", "name", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Usecase) codeTTL() time.Duration {
	return s.cfg.GetMinute("verification.code_ttl_minutes")
}

func (s *Usecase) maxAttempts() int32 {
	return s.cfg.GetInt32("verification.max_attempts")
}

func (s *Usecase) resendInterval() time.Duration {
	return s.cfg.GetSecond("verification.resend_interval_seconds")
}

func (s *Usecase) dispatchTimeout() time.Duration {
	return s.cfg.GetSecond("verification.dispatch_timeout_seconds")
}
