package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/titipyuk/internal/gate"
	"github.com/shandysiswandi/titipyuk/internal/verification"
)

func (a *App) initModules() {
	if err := verification.New(verification.Dependency{
		Ctx:         a.ctx,
		DBConn:      a.dbConn,
		Goroutine:   a.goroutine,
		Router:      a.router,
		Cache:       a.cache,
		Config:      a.config,
		Instrument:  a.ins,
		UID:         a.uid,
		UUID:        a.uuid,
		Hasher:      a.hasher,
		Code:        a.code,
		Clock:       a.clock,
		Validator:   a.validator,
		Messaging:   a.messaging,
		Mail:        a.mail,
		Storage:     a.storage,
		Idempotency: a.idemp,
	}); err != nil {
		slog.Error("failed to init module verification", "error", err)
		os.Exit(1)
	}

	if !a.config.GetBool("modules.gate.enabled") {
		return
	}

	mw, err := gate.New(gate.Dependency{
		Ctx:        a.ctx,
		DBConn:     a.dbConn,
		Enforcer:   a.casbin,
		JWT:        a.jwt,
		Config:     a.config,
		Instrument: a.ins,
		Validator:  a.validator,
	})
	if err != nil {
		slog.Error("failed to init module gate", "error", err)
		os.Exit(1)
	}
	a.gate = mw
}
