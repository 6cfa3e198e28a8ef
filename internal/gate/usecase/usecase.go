package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/titipyuk/internal/gate/entity"
	"github.com/shandysiswandi/titipyuk/internal/pkg/config"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
	"github.com/shandysiswandi/titipyuk/internal/pkg/jwt"
)

type repoDB interface {
	GetPrincipalByID(ctx context.Context, id int64) (*entity.Principal, error)
}

type classifier interface {
	Classify(ctx context.Context, path string) (entity.PathClass, error)
}

type Usecase struct {
	repoDB     repoDB
	classifier classifier
	jwt        jwt.JWT
	ins        instrument.Instrumentation

	mode        entity.VerificationMode
	loginPath   string
	verifyPath  string
	landingPath string

	decisions metric.Int64Counter
}

type Dependency struct {
	RepoDB     repoDB
	Classifier classifier
	JWT        jwt.JWT
	Config     config.Config
	Instrument instrument.Instrumentation
}

// New fails on an unknown gate.verification_mode so a typo cannot silently
// switch the deployment to the other verification source.
func New(dep Dependency) (*Usecase, error) {
	mode, err := entity.ParseVerificationMode(dep.Config.GetString("gate.verification_mode"))
	if err != nil {
		return nil, err
	}

	uc := &Usecase{
		repoDB:      dep.RepoDB,
		classifier:  dep.Classifier,
		jwt:         dep.JWT,
		ins:         dep.Instrument,
		mode:        mode,
		loginPath:   dep.Config.GetString("gate.login_path"),
		verifyPath:  dep.Config.GetString("gate.verify_path"),
		landingPath: dep.Config.GetString("gate.landing_path"),
	}

	uc.decisions, err = dep.Instrument.Meter("gate.usecase").Int64Counter("gate.decisions",
		metric.WithDescription("Number of gate decisions by outcome"))
	if err != nil {
		slog.Error("failed to create counter", "name", "gate.decisions", "error", err)
		uc.decisions = noop.Int64Counter{}
	}

	return uc, nil
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("gate.usecase").Start(ctx, name)
}
