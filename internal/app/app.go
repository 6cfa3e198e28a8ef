package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/titipyuk/internal/pkg/cache"
	"github.com/shandysiswandi/titipyuk/internal/pkg/clock"
	"github.com/shandysiswandi/titipyuk/internal/pkg/config"
	"github.com/shandysiswandi/titipyuk/internal/pkg/goroutine"
	"github.com/shandysiswandi/titipyuk/internal/pkg/hash"
	"github.com/shandysiswandi/titipyuk/internal/pkg/idempotency"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
	"github.com/shandysiswandi/titipyuk/internal/pkg/jwt"
	"github.com/shandysiswandi/titipyuk/internal/pkg/mail"
	"github.com/shandysiswandi/titipyuk/internal/pkg/messaging"
	"github.com/shandysiswandi/titipyuk/internal/pkg/otp"
	"github.com/shandysiswandi/titipyuk/internal/pkg/pgxcasbin"
	"github.com/shandysiswandi/titipyuk/internal/pkg/router"
	"github.com/shandysiswandi/titipyuk/internal/pkg/storage"
	"github.com/shandysiswandi/titipyuk/internal/pkg/uid"
	"github.com/shandysiswandi/titipyuk/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hasher    hash.Hash
	code      otp.Generator
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources, the ones without a driver configured stay nil
	dbConn        *pgxpool.Pool
	cacheConn     *redis.Client
	cache         cache.Store
	idemp         idempotency.Idempotency
	mail          mail.Mail
	messaging     messaging.Messaging
	storage       storage.Storage
	casbin        *casbin.SyncedEnforcer
	casbinWatcher *pgxcasbin.Watcher

	// server
	router     *router.Router
	gate       func(http.Handler) http.Handler
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initCasbin()
	app.initRouter()
	app.initModules()
	app.initHTTPServer()
	app.initClosers()

	return app
}
