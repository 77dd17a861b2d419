package basecamp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	// TODO(tmk): configurable env files
	_ "github.com/joho/godotenv/autoload"

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
)

// A Basecamp manages and exposes all components of a cairn app to one another.
type Basecamp struct {
	*resp.Responder
	router.Router

	cancel    context.CancelFunc
	ctx       context.Context
	db        *postgres.DB
	env       cairn.Environment
	fl        *fail.Responder
	fns       []parserFn
	kr        keyring.Keyringable
	l         logger.Logger
	p         *template.Parser
	sessions  session.SessionStorer
	srv       *http.Server
	url       *url.URL
	userStore middleware.UserStorer
}

// New constructs a Basecamp from the provided options.
// Options passed into New are applied first followed by the default options,
// which only configure what the provided options left unset.
func New[User BasecampUser](cfg Config[User], opts ...BasecampOption) (*Basecamp, error) {
	b := new(Basecamp)
	followups := make([]OptFollowup, 0)

	// NOTE(tmk): calling an option configures the *Basecamp under construction.
	// Some options require data from other options.
	// These options, therefore, must delay configuring the *Basecamp
	// until the others have run,
	// returning an OptFollowup to be called after the initial set of options.
	// The default options all work this way,
	// so a default only fills a field no option passed into New already set.
	for _, opt := range append(cfg.defaultOpts(), opts...) {
		fn, err := opt(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", cairn.ErrBadConfig, err)
		}

		if fn != nil {
			followups = append(followups, fn)
		}
	}

	for _, fn := range followups {
		if err := fn(); err != nil {
			return nil, fmt.Errorf("%w: %s", cairn.ErrBadConfig, err)
		}
	}

	// NOTE(tmk): the parser travels with the *resp.Responder from here on out.
	b.p = nil

	return b, nil
}

func (b *Basecamp) EmitDB() *postgres.DB                    { return b.db }
func (b *Basecamp) EmitEnv() cairn.Environment              { return b.env }
func (b *Basecamp) EmitFailResponder() *fail.Responder      { return b.fl }
func (b *Basecamp) EmitKeyring() keyring.Keyringable        { return b.kr }
func (b *Basecamp) EmitLogger() logger.Logger               { return b.l }
func (b *Basecamp) EmitSessionStore() session.SessionStorer { return b.sessions }

// Cancel stops the context Embark serves under,
// beginning the web server's shutdown.
//
// Cancel does nothing before Embark runs.
func (b *Basecamp) Cancel() {
	if b.cancel != nil {
		b.cancel()
	}
}

// Embark begins the web server.
//
// These, and (*Basecamp).Shutdown, stop Embark:
//
// - os.Interrupt
// - os.Kill
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
func (b *Basecamp) Embark() error {
	base := b.ctx
	if base == nil {
		base = context.Background()
	}

	b.ctx, b.cancel = context.WithCancel(base)

	ch := make(chan os.Signal, 1)
	signal.Notify(
		ch,
		os.Interrupt,
		os.Kill,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)

	go func() {
		s := <-ch
		b.l.Info(fmt.Sprint("received shutdown signal: ", s), nil)
		b.cancel()
	}()

	go func() {
		b.l.Info(fmt.Sprintf("running web server at %s", b.srv.Addr), nil)
		b.srv.Handler = b.Router
		if err := b.srv.ListenAndServe(); err != http.ErrServerClosed {
			err = fmt.Errorf("could not listen: %w", err)
			b.l.Error(err.Error(), nil)
		}
	}()

	<-b.ctx.Done()
	return b.Shutdown()
}

// Shutdown shutdowns the web server.
func (b *Basecamp) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b.l.Info("shutting down web server", nil)
	err := b.srv.Shutdown(shutdownCtx)
	if err == http.ErrServerClosed {
		b.l.Info("web server shutdown successfully", nil)
		return nil
	}

	if err != nil {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	b.l.Info("web server shutdown successfully", nil)
	return nil
}

// MaintModeHandler renders tmpl/maintenance.tmpl with a 503
// while the app undergoes maintenance,
// asking clients to retry after ten minutes.
//
// Funnel all routes to it with Router.CatchAll.
func MaintModeHandler(p *template.Parser, l logger.Logger, contact string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "600")
		w.WriteHeader(http.StatusServiceUnavailable)

		tmpl, err := p.Parse(defaultMaintTmpl)
		if err != nil {
			if l != nil {
				l.Error(fmt.Sprintf("can't parse %s: %s", defaultMaintTmpl, err), nil)
			}

			return
		}

		data := struct{ Contact string }{contact}
		if err := tmpl.Execute(w, data); err != nil && l != nil {
			l.Error(fmt.Sprintf("can't execute %s: %s", defaultMaintTmpl, err), nil)
		}
	}
}
