package gate

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shandysiswandi/titipyuk/internal/gate/inbound"
	"github.com/shandysiswandi/titipyuk/internal/gate/outbound/db"
	"github.com/shandysiswandi/titipyuk/internal/gate/outbound/policy"
	"github.com/shandysiswandi/titipyuk/internal/gate/usecase"
	"github.com/shandysiswandi/titipyuk/internal/pkg/config"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
	"github.com/shandysiswandi/titipyuk/internal/pkg/jwt"
	"github.com/shandysiswandi/titipyuk/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	Enforcer   casbin.IEnforcer           `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

type redirectPaths struct {
	Login   string `validate:"required,localpath"`
	Verify  string `validate:"required,localpath"`
	Landing string `validate:"required,localpath"`
}

// New seeds the default path rules when the rule table is empty and returns
// the middleware to install in front of the HTTP handler.
func New(dep Dependency) (func(http.Handler) http.Handler, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	if err := dep.Validator.Validate(redirectPaths{
		Login:   dep.Config.GetString("gate.login_path"),
		Verify:  dep.Config.GetString("gate.verify_path"),
		Landing: dep.Config.GetString("gate.landing_path"),
	}); err != nil {
		return nil, err
	}

	pol := policy.New(dep.Enforcer, dep.Instrument)
	if err := pol.SeedDefaults(dep.Ctx,
		dep.Config.GetArray("gate.protected_paths"),
		dep.Config.GetArray("gate.auth_paths"),
	); err != nil {
		return nil, err
	}

	uc, err := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Classifier: pol,
		JWT:        dep.JWT,
		Config:     dep.Config,
		Instrument: dep.Instrument,
	})
	if err != nil {
		return nil, err
	}

	return inbound.NewMiddleware(uc, dep.Config.GetString("gate.session_cookie")), nil
}
