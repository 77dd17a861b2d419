/*

Package main runs a small but complete cairn app:

  - users live in memory (stub.go); the default middleware stack looks
    them up through basecamp.WithUserStore
  - pages render off embedded templates through the resp.Responder
  - signing in registers the user in a cookie-backed session
  - /api/ping declares the content type it produces, so failures on it
    render as JSON no matter what the client asks for
  - failures everywhere else negotiate their content type from the
    request's "Accept" header

Sessions are signed and encrypted, so run with keys in the environment:

	SESSION_AUTH_KEY=$(openssl rand -hex 32) \
	SESSION_ENCRYPTION_KEY=$(openssl rand -hex 16) \
	APP_TITLE="Cairn Demo" go run .
*/
package main

import (
	"embed"
	"fmt"
	"net/http"

	"github.com/cairnhq/cairn/basecamp"
	. "github.com/cairnhq/cairn/http/resp"
	"github.com/cairnhq/cairn/http/router"
	"github.com/cairnhq/cairn/postgres"
)

//go:embed tmpl
var files embed.FS

const (
	homeTmpl  = "tmpl/home.tmpl"
	indexTmpl = "tmpl/index.tmpl"
	loginTmpl = "tmpl/login.tmpl"
)

// handler wraps a configured *Basecamp.
// The methods attached to it are the handlers the Router
// directs requests to.
type handler struct {
	*basecamp.Basecamp
}

// root renders the landing page for anyone.
//
// Html reports its own failures: it logs, writes the error page
// and returns the underlying error, so there is nothing left
// for a handler to do with that error.
func (h handler) root(w http.ResponseWriter, r *http.Request) {
	h.Html(w, r, Unauthed(), Tmpls(indexTmpl), Data(map[string]any{
		"greeting": "Stack a stone, mark the trail.",
	}))
}

// loginForm renders the sign-in page.
func (h handler) loginForm(w http.ResponseWriter, r *http.Request) {
	h.Html(w, r, Unauthed(), Tmpls(loginTmpl))
}

// login signs in the named user, minting one the first time around.
func (h handler) login(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("name")
	if name == "" {
		h.Redirect(w, r, Url("/login"), Warn("A name is required to sign in."))
		return
	}

	sess, err := h.Session(r.Context())
	if err != nil {
		h.Err(w, r, err)
		return
	}

	u := users.findOrCreate(name)

	// cycle the session ID so nobody rides in on the pre-auth one
	if err := sess.RegenerateID(w, r); err != nil {
		h.Err(w, r, err)
		return
	}

	if err := sess.RegisterUser(w, r, u.ID); err != nil {
		h.Err(w, r, err)
		return
	}

	h.Redirect(w, r, Url("/home"), Success("Welcome, "+u.Name+"!"))
}

// home greets the signed-in user.
// middleware.RequireAuthed guarantees one is set before we land here.
func (h handler) home(w http.ResponseWriter, r *http.Request) {
	h.Html(w, r, Authed(), Tmpls(homeTmpl))
}

// logoff drops the user from the session and heads back to the landing page.
func (h handler) logoff(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Session(r.Context())
	if err != nil {
		h.Err(w, r, err)
		return
	}

	if err := sess.DeregisterUser(w, r); err != nil {
		h.Err(w, r, err)
		return
	}

	h.Redirect(w, r, ToRoot())
}

// ping answers a tiny JSON payload.
func (h handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.Json(w, r, Data(map[string]string{"ping": "pong"})); err != nil {
		h.Err(w, r, err)
	}
}

// broken asks for an authenticated page with nobody signed in,
// so the Responder walks through its error rendering instead.
func (h handler) broken(w http.ResponseWriter, r *http.Request) {
	h.Html(w, r, Authed())
}

func main() {
	b, err := basecamp.New(
		basecamp.Config[user]{FS: files},
		// the demo runs without Postgres; users come from stub.go instead
		basecamp.WithDB(postgres.NewDB(nil)),
		basecamp.WithUserStore(users.get),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	h := handler{b}
	b.UnauthedRoutes([]router.Route{
		{Path: "/", Method: http.MethodGet, Handler: h.root},
		{Path: "/login", Method: http.MethodGet, Handler: h.loginForm},
		{Path: "/login", Method: http.MethodPost, Handler: h.login},
	})
	b.AuthedRoutes("/login", "/logoff", []router.Route{
		{Path: "/home", Method: http.MethodGet, Handler: h.home},
		{Path: "/logoff", Method: http.MethodGet, Handler: h.logoff},
	})
	b.HandleRoutes([]router.Route{
		{Path: "/api/ping", Method: http.MethodGet, Handler: h.ping, Produces: "application/json"},
		{Path: "/broken", Method: http.MethodGet, Handler: h.broken},
	})

	if err := b.Embark(); err != nil {
		fmt.Println(err)
	}
}
