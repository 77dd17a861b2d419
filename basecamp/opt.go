package basecamp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cairnhq/cairn"
	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/http/keyring"
	"github.com/cairnhq/cairn/http/middleware"
	"github.com/cairnhq/cairn/http/resp"
	"github.com/cairnhq/cairn/http/router"
	"github.com/cairnhq/cairn/http/session"
	"github.com/cairnhq/cairn/logger"
	"github.com/cairnhq/cairn/postgres"
)

// A BasecampOption configures a *Basecamp either (1) directly, immediately upon being called
// or (2) in the OptFollowup it returns.
// Some BasecampOptions require data in others and thus an OptFollowup can be returned
// in order to be called at a later time when that data is available.
//
// WithKeyring is an example of the first.
// An unexported field on the passed in *Basecamp is updated with the enclosed value.
//
// The default options Config supplies are examples of the second.
// Each defers until the options passed into New have configured the *Basecamp,
// then fills in only what remains unset.
type BasecampOption func(b *Basecamp) (OptFollowup, error)
type OptFollowup func() error

// WithContext exposes the provided context.Context to the cairn app.
//
// Embark derives the context it serves under from this one,
// so cancelling it stops the web server.
func WithContext(ctx context.Context) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		b.ctx = ctx
		return nil, nil
	}
}

// WithDB exposes the provided *postgres.DB to the cairn app.
//
// WithDB assumes a connection has already been established
// and migrations have already run.
func WithDB(db *postgres.DB) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		b.db = db
		return nil, nil
	}
}

// WithEnv exposes the provided Environment to the cairn app.
//
// If env is not valid, the ENVIRONMENT env var applies,
// falling back to cairn.Development.
func WithEnv(env cairn.Environment) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		if err := env.Valid(); err != nil {
			b.env = cairn.EnvVarOrEnv(environmentEnvVar, cairn.Development)
			return nil, nil
		}

		b.env = env
		return nil, nil
	}
}

// WithFailResponder exposes the provided *fail.Responder to the cairn app.
//
// The *fail.Responder renders request failures - 404s, panics, revoked users -
// in the content type the client negotiates.
// The default router, middleware stack and *resp.Responder all route failures through it.
func WithFailResponder(fl *fail.Responder) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		b.fl = fl
		return nil, nil
	}
}

// WithKeyring exposes the provided keyring.Keyringable to the cairn app.
func WithKeyring(kr keyring.Keyringable) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		b.kr = kr
		return nil, nil
	}
}

// WithLogger exposes the provided logger.Logger to the cairn app.
func WithLogger(l logger.Logger) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		b.l = l
		return nil, nil
	}
}

// A parserFn is a function an HTML template calls by name,
// queued up by WithParserFn for the default template parser.
type parserFn struct {
	name string
	fn   any
}

// WithParserFn makes fn available to HTML templates under name,
// alongside the functions the default template parser already provides.
//
// WithParserFn has no effect when WithResponder supplies the *resp.Responder,
// since that Responder brings its own parser.
func WithParserFn(name string, fn any) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		b.fns = append(b.fns, parserFn{name, fn})
		return nil, nil
	}
}

// WithResponder exposes the provided *resp.Responder to the cairn app.
func WithResponder(r *resp.Responder) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		b.Responder = r
		return nil, nil
	}
}

// WithRouter exposes the provided router.Router to the cairn app.
//
// Embark sets the router as the web server's handler,
// so no default middleware stack applies to it.
func WithRouter(r router.Router) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		b.Router = r
		return nil, nil
	}
}

// WithServer exposes the provided *http.Server to the cairn app.
func WithServer(srv *http.Server) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		b.srv = srv
		return nil, nil
	}
}

// WithSessionStore exposes the provided session.SessionStorer to the cairn app.
func WithSessionStore(store session.SessionStorer) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		b.sessions = store
		return nil, nil
	}
}

// WithURL sets the URL the cairn app is reached at,
// overriding the BASE_URL env var.
func WithURL(u string) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		parsed, err := url.ParseRequestURI(u)
		if err != nil {
			return nil, fmt.Errorf("can't parse %q: %s", u, err)
		}

		b.url = parsed
		return nil, nil
	}
}

// WithUserStore sets how the default middleware stack retrieves the User
// a session names, in place of looking the User up in the app's database.
func WithUserStore(storer middleware.UserStorer) BasecampOption {
	return func(b *Basecamp) (OptFollowup, error) {
		b.userStore = storer
		return nil, nil
	}
}
