package verification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shandysiswandi/titipyuk/internal/pkg/cache"
	"github.com/shandysiswandi/titipyuk/internal/pkg/clock"
	"github.com/shandysiswandi/titipyuk/internal/pkg/config"
	"github.com/shandysiswandi/titipyuk/internal/pkg/goroutine"
	"github.com/shandysiswandi/titipyuk/internal/pkg/hash"
	"github.com/shandysiswandi/titipyuk/internal/pkg/idempotency"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
	"github.com/shandysiswandi/titipyuk/internal/pkg/mail"
	"github.com/shandysiswandi/titipyuk/internal/pkg/messaging"
	"github.com/shandysiswandi/titipyuk/internal/pkg/otp"
	"github.com/shandysiswandi/titipyuk/internal/pkg/router"
	"github.com/shandysiswandi/titipyuk/internal/pkg/storage"
	"github.com/shandysiswandi/titipyuk/internal/pkg/uid"
	"github.com/shandysiswandi/titipyuk/internal/pkg/validator"
	"github.com/shandysiswandi/titipyuk/internal/verification/inbound"
	"github.com/shandysiswandi/titipyuk/internal/verification/outbound/db"
	"github.com/shandysiswandi/titipyuk/internal/verification/outbound/email"
	"github.com/shandysiswandi/titipyuk/internal/verification/outbound/mq"
	"github.com/shandysiswandi/titipyuk/internal/verification/usecase"
)

// Dependency fields without a validate tag are optional: a nil Messaging
// drops events, a nil Mail skips delivery, a nil Storage uses the embedded
// template and a nil Idempotency ignores Idempotency-Key.
type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Cache      cache.Store                `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Hasher     hash.Hash                  `validate:"required"`
	Code       otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`

	Messaging   messaging.Messaging
	Mail        mail.Mail
	Storage     storage.Storage
	Idempotency idempotency.Idempotency
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoMail := email.New(dep.Mail, dep.Storage, dep.Cache, dep.Clock, email.Config{
		From:      dep.Config.GetString("mail.from"),
		Bucket:    dep.Config.GetString("verification.template.bucket"),
		ObjectKey: dep.Config.GetString("verification.template.object_key"),
		CacheTTL:  dep.Config.GetSecond("verification.template.cache_ttl_seconds"),
	}, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoMail:      repoMail,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Hasher:        dep.Hasher,
		Code:          dep.Code,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Idempotency)
	if dep.Messaging != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
