/*
third-example provides a JSON API atop cairn's http stack,
highlighting its flexibility to work
with an application's own implementation of important interfaces
describing the currentUser concept at the heart of cairn.

As well, it leverages middleware.InjectResponder instead of wrapping
the Basecamp's Responder in some intermediate struct HTTP handlers are
methods on, thereby allowing those handlers to be standalone functions.

Handlers here never render HTML; failures negotiate their content type
from the route's Produces and the request's Accept header.
Try /api/teapot with different Accept headers to watch that happen.

Logging in saves the session in an encrypted cookie,
so run with real hex-encoded keys:

	SESSION_AUTH_KEY=$(openssl rand -hex 32) \
	SESSION_ENCRYPTION_KEY=$(openssl rand -hex 16) \
	go run .
*/
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cairnhq/cairn/basecamp"
	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/http/keyring"
	"github.com/cairnhq/cairn/http/middleware"
	"github.com/cairnhq/cairn/http/router"
	"github.com/cairnhq/cairn/http/session"
	"github.com/cairnhq/cairn/postgres"
)

const responderKey keyring.Key = "third-example-responder-key"

var (
	currentUserKey keyring.Keyable
	sessionKey     keyring.Keyable
)

// mockUser is our custom "user" type, albeit an overly simple one.
type mockUser uint

func (u mockUser) HasAccess() bool  { return true }
func (u mockUser) HomePath() string { return "/api/profile" }

// failer pulls the *fail.Responder out of the *http.Request.Context.
func failer(w http.ResponseWriter, r *http.Request) (*fail.Responder, bool) {
	d, ok := r.Context().Value(responderKey).(*fail.Responder)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
	}

	return d, ok
}

func root(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("GET /api/login?id=N, then /api/profile; /api/logoff ends it. /api/teapot always fails.\n"))
}

func profile(w http.ResponseWriter, r *http.Request) {
	d, ok := failer(w, r)
	if !ok {
		return
	}

	u, ok := r.Context().Value(currentUserKey).(mockUser)
	if !ok {
		d.Handle(w, r, http.StatusUnauthorized, errors.New("expected user in *http.Request.Context, not found"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	json.NewEncoder(w).Encode(map[string]any{"id": uint(u), "home": u.HomePath()})
}

func login(w http.ResponseWriter, r *http.Request) {
	d, ok := failer(w, r)
	if !ok {
		return
	}

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		err = fmt.Errorf("bad id query param %q", r.URL.Query().Get("id"))
		d.Handle(w, r, http.StatusBadRequest, err)

		return
	}

	sess, ok := r.Context().Value(sessionKey).(session.CairnSessionable)
	if !ok {
		d.Handle(w, r, http.StatusInternalServerError, errors.New("expected session in *http.Request.Context, not found"))
		return
	}

	// cycle the session ID so nobody rides in on the pre-auth one.
	if err := sess.RegenerateID(w, r); err != nil {
		d.Handle(w, r, http.StatusInternalServerError, err)
		return
	}

	if err := sess.RegisterUser(w, r, uint(id)); err != nil {
		d.Handle(w, r, http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func logoff(w http.ResponseWriter, r *http.Request) {
	d, ok := failer(w, r)
	if !ok {
		return
	}

	sess, ok := r.Context().Value(sessionKey).(session.CairnSessionable)
	if !ok {
		d.Handle(w, r, http.StatusInternalServerError, errors.New("expected session in *http.Request.Context, not found"))
		return
	}

	if err := sess.DeregisterUser(w, r); err != nil {
		d.Handle(w, r, http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// teapot fails on purpose.
//
// The route's Produces says JSON, so that's what curl gets;
// ask with "Accept: text/html" or "Accept: text/plain" instead
// and the same failure renders in those.
func teapot(w http.ResponseWriter, r *http.Request) {
	d, ok := failer(w, r)
	if !ok {
		return
	}

	d.Handle(w, r, http.StatusTeapot, errors.New("short and stout"))
}

func main() {
	b, err := basecamp.New(
		basecamp.Config[mockUser]{},
		basecamp.WithDB(postgres.NewDB(nil)),

		// our "user store" shows how a custom implementation of
		// middleware.User need not live in a database at all.
		basecamp.WithUserStore(func(id uint) (middleware.User, error) {
			return mockUser(id), nil
		}),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	currentUserKey = b.EmitKeyring().CurrentUserKey()
	sessionKey = b.EmitKeyring().SessionKey()

	b.OnEveryRequest(middleware.InjectResponder(b.EmitFailResponder(), responderKey))

	b.Handle(router.Route{Path: "/", Method: http.MethodGet, Handler: root})
	b.Handle(router.Route{Path: "/api/teapot", Method: http.MethodGet, Handler: teapot, Produces: "application/json"})

	b.UnauthedRoutes(
		[]router.Route{
			{Path: "/api/login", Method: http.MethodGet, Handler: login, Produces: "application/json"},
		},
	)

	b.AuthedRoutes(
		"/api/login",
		"/api/logoff",
		[]router.Route{
			{Path: "/api/profile", Method: http.MethodGet, Handler: profile, Produces: "application/json"},
			{Path: "/api/logoff", Method: http.MethodGet, Handler: logoff, Produces: "application/json"},
		},
	)

	if err := b.Embark(); err != nil {
		b.EmitLogger().Error(err.Error(), nil)
		return
	}
}
