package basecamp

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cairnhq/cairn"
	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/http/keyring"
	"github.com/cairnhq/cairn/http/middleware"
	"github.com/cairnhq/cairn/http/resp"
	"github.com/cairnhq/cairn/http/router"
	"github.com/cairnhq/cairn/http/session"
	"github.com/cairnhq/cairn/http/template"
	"github.com/cairnhq/cairn/logger"
	"github.com/cairnhq/cairn/postgres"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// Base URL defaults
	BaseURLEnvVar  = "BASE_URL"
	defaultBaseURL = "http://" + DefaultHost + DefaultPort

	// App metadata
	AppDescEnvVar    = "APP_DESCRIPTION"
	AppTitleEnvVar   = "APP_TITLE"
	ContactUsEnvVar  = "CONTACT_US_EMAIL"
	defaultContactUs = "hello@cairnhq.com"

	// Environment defaults
	environmentEnvVar = "ENVIRONMENT"

	// Log defaults
	logLevelEnvVar  = "LOG_LEVEL"
	sentryDsnEnvVar = "SENTRY_DSN"

	// Database defaults
	dbHostEnvVar         = "DATABASE_HOST"
	defaultDBHost        = "localhost"
	dbMaxIdleCxnsEnvVar  = "DATABASE_MAX_IDLE_CXNS"
	defaultDBMaxIdleCxns = 1
	dbNameEnvVar         = "DATABASE_NAME"
	dbPassEnvVar         = "DATABASE_PASSWORD"
	dbPortEnvVar         = "DATABASE_PORT"
	defaultDBPort        = "5432"
	dbSSLModeEnvVar      = "DATABASE_SSLMODE"
	defaultDBSSLMode     = "prefer"
	dbURLEnvVar          = "DATABASE_URL"
	dbUserEnvVar         = "DATABASE_USER"

	// Default HTML template files
	defaultTmplDir               = "tmpl"
	defaultErrTmpl               = defaultTmplDir + "/error.tmpl"
	defaultMaintTmpl             = defaultTmplDir + "/maintenance.tmpl"
	defaultLayoutDir             = defaultTmplDir + "/layout"
	defaultAdditionalScriptsTmpl = defaultLayoutDir + "/additional_scripts.tmpl"
	defaultAuthedTmpl            = defaultLayoutDir + "/authenticated_base.tmpl"
	defaultUnauthedTmpl          = defaultLayoutDir + "/unauthenticated_base.tmpl"
	defaultVueTmpl               = defaultLayoutDir + "/vue.tmpl"
	defaultVueScriptsTmpl        = defaultLayoutDir + "/vue_scripts.tmpl"

	// Web server defaults
	DefaultHost               = "localhost"
	DefaultPort               = ":3000"
	portEnvVar                = "PORT"
	serverIdleTimeoutEnvVar   = "SERVER_IDLE_TIMEOUT"
	DefaultServerIdleTimeout  = 120 * time.Second
	serverReadTimeoutEnvVar   = "SERVER_READ_TIMEOUT"
	DefaultServerReadTimeout  = 5 * time.Second
	serverWriteTimeoutEnvVar  = "SERVER_WRITE_TIMEOUT"
	DefaultServerWriteTimeout = 5 * time.Second

	// Session defaults
	SessionAuthKeyEnvVar    = "SESSION_AUTH_KEY"
	SessionEncryptKeyEnvVar = "SESSION_ENCRYPTION_KEY"

	// Test defaults
	dbTestHostEnvVar     = "DATABASE_TEST_HOST"
	defaultDBTestHost    = "localhost"
	dbTestNameEnvVar     = "DATABASE_TEST_NAME"
	dbTestPassEnvVar     = "DATABASE_TEST_PASSWORD"
	dbTestPortEnvVar     = "DATABASE_TEST_PORT"
	defaultDBTestPort    = "5432"
	dbTestSSLModeEnvVar  = "DATABASE_TEST_SSLMODE"
	defaultDBTestSSLMode = "prefer"
	dbTestURLEnvVar      = "DATABASE_TEST_URL"
	dbTestUserEnvVar     = "DATABASE_TEST_USER"
)

//go:embed tmpl/*
var tmpls embed.FS

// Metadata identifies the app to its HTML templates,
// read from the APP_TITLE and APP_DESCRIPTION env vars.
type Metadata struct {
	Description string
	Title       string
}

func newMetadata() Metadata {
	return Metadata{
		Description: os.Getenv(AppDescEnvVar),
		Title:       os.Getenv(AppTitleEnvVar),
	}
}

// NewPostgresConfig constructs a *postgres.CxnConfig appropriate to the given environment.
// Confer the DATABASE env vars for usage.
func NewPostgresConfig(env cairn.Environment) *postgres.CxnConfig {
	var cfg *postgres.CxnConfig
	url := os.Getenv(dbURLEnvVar)
	switch {
	case env.IsTesting():
		cfg = &postgres.CxnConfig{
			Host:     cairn.EnvVarOrString(dbTestHostEnvVar, defaultDBTestHost),
			IsTestDB: true,
			Name:     os.Getenv(dbTestNameEnvVar),
			Password: os.Getenv(dbTestPassEnvVar),
			Port:     cairn.EnvVarOrString(dbTestPortEnvVar, defaultDBTestPort),
			SSLMode:  cairn.EnvVarOrString(dbTestSSLModeEnvVar, defaultDBTestSSLMode),
			URL:      os.Getenv(dbTestURLEnvVar),
			User:     os.Getenv(dbTestUserEnvVar),
		}

	case url == "":
		cfg = &postgres.CxnConfig{
			Host:     cairn.EnvVarOrString(dbHostEnvVar, defaultDBHost),
			IsTestDB: false,
			Name:     os.Getenv(dbNameEnvVar),
			Password: os.Getenv(dbPassEnvVar),
			Port:     cairn.EnvVarOrString(dbPortEnvVar, defaultDBPort),
			SSLMode:  cairn.EnvVarOrString(dbSSLModeEnvVar, defaultDBSSLMode),
			User:     os.Getenv(dbUserEnvVar),
		}

	default:
		cfg = &postgres.CxnConfig{IsTestDB: false, URL: url}
	}

	cfg.Env = env
	cfg.MaxIdleCxns = cairn.EnvVarOrInt(dbMaxIdleCxnsEnvVar, defaultDBMaxIdleCxns)

	return cfg
}

// defaultOpts returns the default BasecampOptions in dependency order.
//
// Each defers its work to an OptFollowup so the options passed into New
// land first; a followup only fills in what those left unset.
func (cfg Config[User]) defaultOpts() []BasecampOption {
	return []BasecampOption{
		defaultEnvOpt(),
		defaultURLOpt(),
		defaultLoggerOpt(),
		defaultKeyringOpt(),
		cfg.defaultDBOpt(),
		defaultSessionStoreOpt(),
		cfg.defaultParserOpt(),
		defaultFailResponderOpt(),
		defaultResponderOpt(),
		cfg.defaultRouterOpt(),
		defaultServerOpt(),
	}
}

func defaultEnvOpt() BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		return func() error {
			if b.env.Valid() == nil {
				return nil
			}

			b.env = cairn.EnvVarOrEnv(environmentEnvVar, cairn.Development)
			return nil
		}, nil
	}
}

func defaultURLOpt() BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		return func() error {
			if b.url != nil {
				return nil
			}

			b.url = cairn.EnvVarOrURL(BaseURLEnvVar, defaultBaseURL)
			return nil
		}, nil
	}
}

func defaultLoggerOpt() BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		return func() error {
			if b.l != nil {
				return nil
			}

			b.l = defaultLogger(b.env)
			b.l.Debug("using default logger", nil)
			return nil
		}, nil
	}
}

func defaultKeyringOpt() BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		return func() error {
			if b.kr != nil {
				return nil
			}

			b.kr = keyring.NewKeyring(
				cairn.SessionKey,
				cairn.CurrentUserKey,
				cairn.IpAddrKey,
				cairn.RequestIDKey,
				cairn.RouteFormatKey,
			)
			return nil
		}, nil
	}
}

func (cfg Config[User]) defaultDBOpt() BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		return func() error {
			if b.db != nil {
				return nil
			}

			var err error
			b.db, err = defaultDB(b.env, cfg.Migrations)
			if err != nil {
				return err
			}

			b.l.Debug("connected to default database", nil)
			return nil
		}, nil
	}
}

func defaultSessionStoreOpt() BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		return func() error {
			if b.sessions != nil {
				return nil
			}

			var err error
			b.sessions, err = defaultSessionStore(b.env, os.Getenv(AppTitleEnvVar))
			if err != nil {
				return err
			}

			b.l.Debug("using default session store", nil)
			return nil
		}, nil
	}
}

func (cfg Config[User]) defaultParserOpt() BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		return func() error {
			if b.p != nil {
				return nil
			}

			files := cfg.FS
			if files == nil {
				files = os.DirFS(".")
			}

			b.p = defaultParser(b.env, b.url, files, b.l, newMetadata())
			for _, fn := range b.fns {
				b.p = b.p.AddFn(fn.name, fn.fn)
			}

			return nil
		}, nil
	}
}

func defaultFailResponderOpt() BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		return func() error {
			if b.fl != nil {
				return nil
			}

			var err error
			b.fl, err = fail.NewResponder(
				fail.WithDetail(!b.env.Deployed()),
				fail.WithLogger(b.l),
			)
			return err
		}, nil
	}
}

func defaultResponderOpt() BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		return func() error {
			if b.Responder != nil {
				return nil
			}

			contact := cairn.EnvVarOrString(ContactUsEnvVar, defaultContactUs)
			b.Responder = defaultResponder(b.l, b.url, b.p, b.fl, b.kr, contact)
			return nil
		}, nil
	}
}

func (cfg Config[User]) defaultRouterOpt() BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		return func() error {
			if b.Router != nil {
				return nil
			}

			store := b.userStore
			if store == nil {
				store = cfg.defaultUserStore(b.db)
			}

			b.Router = defaultRouter(
				b.env,
				b.fl,
				b.url,
				b.Responder,
				b.kr,
				b.l,
				b.sessions,
				store,
			)
			return nil
		}, nil
	}
}

func defaultServerOpt() BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		return func() error {
			if b.srv != nil {
				return nil
			}

			b.srv = defaultServer(b)
			return nil
		}, nil
	}
}

// defaultDB connects to a Postgres database
// using default configuration environment variables
// and runs the list of [postgres.Migration] passed in.
func defaultDB(env cairn.Environment, list []postgres.Migration) (*postgres.DB, error) {
	db, err := postgres.Connect(NewPostgresConfig(env))
	if err != nil {
		return nil, err
	}

	if err := postgres.MigrateUp(db.DB(), "public", list); err != nil {
		return nil, err
	}

	return db, nil
}

// defaultLogger constructs a logger.Logger configured for use in the application,
// wrapped with Sentry reporting when the SENTRY_DSN env var is set.
func defaultLogger(env cairn.Environment) logger.Logger {
	l := logger.NewLogger(
		logger.WithEnv(env.String()),
		logger.WithLevel(cairn.EnvVarOrLogLevel(logLevelEnvVar, logger.LogLevelInfo)),
	)

	dsn := os.Getenv(sentryDsnEnvVar)
	cl, ok := l.(*logger.CairnLogger)
	if dsn != "" && ok {
		l = logger.NewSentryLogger(cl, dsn)
		l.Debug("using SentryLogger for app logger", nil)
	}

	return l
}

// defaultParser constructs a *template.Parser to be used
// when responding to HTTP requests with [*resp.Responder.Html].
//
// defaultParser makes available these functions in an HTML template:
//
//   - "assetURI"
//   - "description" returns the value set by the APP_DESCRIPTION env var
//   - "env"
//   - "isDevelopment"
//   - "isProduction"
//   - "isStaging"
//   - "metadata"
//   - "nonce"
//   - "packTag"
//   - "rootURL"
//   - "title" returns the value set by the APP_TITLE env var
func defaultParser(env cairn.Environment, u *url.URL, files fs.FS, l logger.Logger, m Metadata) *template.Parser {
	p := template.NewParser([]fs.FS{files, tmpls})
	p = p.AddFn(template.Env(env))
	p = p.AddFn("isDevelopment", env.IsDevelopment)
	p = p.AddFn("isProduction", env.IsProduction)
	p = p.AddFn("isStaging", env.IsStaging)
	p = p.AddFn("metadata", func() Metadata { return m })
	p = p.AddFn("description", func() string { return m.Description })
	p = p.AddFn("title", func() string { return m.Title })
	p = p.AddFn(template.Nonce())
	p = p.AddFn(template.RootURL(u))
	p = p.AddFn("assetURI", template.AssetURI(nil, env, os.DirFS("."), l))
	p = p.AddFn("packTag", template.TagPacker(env, os.DirFS(".")))

	return p
}

// defaultResponder configures the [*resp.Responder] to be used by http.Handlers.
//
// The Responder looks up the session and current user under the keyring's keys,
// matching where the default middleware stack stores them.
func defaultResponder(
	l logger.Logger,
	u *url.URL,
	p *template.Parser,
	fl *fail.Responder,
	kr keyring.Keyringable,
	contact string,
) *resp.Responder {
	args := []resp.ResponderOptFn{
		resp.WithAdditionalScriptsTemplate(defaultAdditionalScriptsTmpl),
		resp.WithAuthTemplate(defaultAuthedTmpl),
		resp.WithContactErrMsg(fmt.Sprintf(session.ContactUsErr, contact)),
		resp.WithErrTemplate(defaultErrTmpl),
		resp.WithFailResponder(fl),
		resp.WithLogger(l),
		resp.WithParser(p),
		resp.WithRootURL(u.String()),
		resp.WithSessionKey(kr.SessionKey()),
		resp.WithUnauthTemplate(defaultUnauthedTmpl),
		resp.WithUserSessionKey(kr.CurrentUserKey()),
		resp.WithVueTemplate(defaultVueTmpl),
		resp.WithVueScriptsTemplate(defaultVueScriptsTmpl),
	}

	return resp.NewResponder(args...)
}

// defaultRouter constructs a [router.Router] to be used by the web server,
// stacking the default middlewares on every request.
//
// Requests for HTML that match no registered route redirect to the root URL;
// all other failures render through the *fail.Responder
// in the content type the client negotiates.
func defaultRouter(
	env cairn.Environment,
	fl *fail.Responder,
	baseURL *url.URL,
	responder *resp.Responder,
	kr keyring.Keyringable,
	l logger.Logger,
	sessions session.SessionStorer,
	store middleware.UserStorer,
) router.Router {
	route := router.NewRouter(env, fl, kr.CurrentUserKey(), middleware.LogRequest(l))
	route.OnEveryRequest(
		middleware.TrackResponse(),
		middleware.RequestID(kr.Key(cairn.RequestIDKey.Key())),
		middleware.InjectIPAddress(),
		middleware.LogRequest(l),
		middleware.CatchPanic(l, fl),
		middleware.InjectSession(sessions, kr.SessionKey()),
		middleware.CurrentUser(fl, store, kr.SessionKey(), kr.CurrentUserKey()),
	)
	route.HandleNotFound(func(wx http.ResponseWriter, rx *http.Request) {
		if strings.Contains(rx.Header.Get("Accept"), "text/html") && rx.URL.Path != baseURL.Path {
			responder.Redirect(wx, rx, resp.ToRoot())
			return
		}

		fl.Handle(wx, rx, http.StatusNotFound, nil)
	})

	return route
}

// defaultSessionStore constructs a SessionStorer to be used for storing session data.
//
// defaultSessionStore relies on three env vars:
//   - APP_TITLE
//   - SESSION_AUTH_KEY
//   - SESSION_ENCRYPTION_KEY
//
// Both KEY env vars must be valid hex encoded values; cf. [encoding/hex].
func defaultSessionStore(env cairn.Environment, appName string) (session.SessionStorer, error) {
	appName = cases.Lower(language.English).String(appName)
	appName = regexp.MustCompile(`[,':]`).ReplaceAllString(appName, "")
	appName = regexp.MustCompile(`\s`).ReplaceAllString(appName, "-")

	cfg := session.Config{
		AuthKey:     os.Getenv(SessionAuthKeyEnvVar),
		EncryptKey:  os.Getenv(SessionEncryptKeyEnvVar),
		Env:         env,
		SessionName: "cairn-" + appName,
	}

	args := []session.ServiceOpt{
		session.WithMaxAge(3600 * 24 * 7),
		session.WithCookie(),
	}

	return session.NewStoreService(cfg, args...)
}

// defaultServer constructs a default [*http.Server]
// whose base context is the context Embark serves under.
func defaultServer(b *Basecamp) *http.Server {
	port := cairn.EnvVarOrString(portEnvVar, DefaultPort)
	if port[0] != ':' {
		port = ":" + port
	}

	return &http.Server{
		Addr:         port,
		IdleTimeout:  cairn.EnvVarOrDuration(serverIdleTimeoutEnvVar, DefaultServerIdleTimeout),
		ReadTimeout:  cairn.EnvVarOrDuration(serverReadTimeoutEnvVar, DefaultServerReadTimeout),
		WriteTimeout: cairn.EnvVarOrDuration(serverWriteTimeoutEnvVar, DefaultServerWriteTimeout),
		BaseContext: func(_ net.Listener) context.Context {
			if b.ctx != nil {
				return b.ctx
			}

			return context.Background()
		},
	}
}
