/*

start-here provides a toy example use of cairn's http stack,
focusing on the basics of:

(1) constructing a default Basecamp;
(2) binding routes to handlers;
(3) using resp.Responder methods for responding to requests;
(4) and the use of resp.Fn functional options for declaring how
	the method forms the response payload.
*/
package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cairnhq/cairn/basecamp"
	. "github.com/cairnhq/cairn/http/resp"
	"github.com/cairnhq/cairn/http/router"
	"github.com/cairnhq/cairn/postgres"
)

const (
	// these refer to templates available for rendering
	dir    string = "tmpl/"
	first  string = dir + "first.tmpl"
	last   string = dir + "last.tmpl"
	next   string = dir + "next.tmpl"
	nested string = dir + "nested/nested.tmpl"
)

// BasecampHandler wraps a configured *Basecamp.
// The methods attached to it are the handlers the Router
// will direct requests to.
type BasecampHandler struct {
	*basecamp.Basecamp
}

// authed is a fully-formed use of Responder showing how the inclusion of a user
// in the *http.Request.Context allows using Authed(),
// in contrast to the broken method below which does not.
func (h *BasecampHandler) authed(w http.ResponseWriter, r *http.Request) {
	// NOTE: this mocks the functionality of middleware.CurrentUser
	// which sets a user in the *http.Request.Context
	r = r.WithContext(context.WithValue(r.Context(), h.EmitKeyring().CurrentUserKey(), "example-user"))

	h.Html(w, r, Authed(), Tmpls(first))
}

// root is a fully-formed use of Responder.
//
// Unauthed does not error out because an unauthenticated template
// is found at the default location: tmpl/layout/unauthenticated_base.tmpl,
// embedded in the basecamp package.
func (h *BasecampHandler) root(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"trail":  "marked",
		"stones": "stacked",
		"summit": "in sight",
	}

	h.Html(w, r, Unauthed(), Tmpls(first, next, last), Data(data))
}

// incorrect shows how including a template not referred to by the base one
// does not break our ability to call Html.
func (h *BasecampHandler) incorrect(w http.ResponseWriter, r *http.Request) {
	h.Html(w, r, Unauthed(), Tmpls(nested, next, last))
}

// broken cannot render because there is no user to populate the authed template with.
//
// Html writes the error page itself and returns the underlying error,
// so nothing more needs doing here.
func (h *BasecampHandler) broken(w http.ResponseWriter, r *http.Request) {
	h.Html(w, r, Authed())
}

func main() {
	// construct a Basecamp using all defaults;
	// this toy needs no database, so hand New an empty handle.
	b, err := basecamp.New(
		basecamp.Config[stubUser]{},
		basecamp.WithDB(postgres.NewDB(nil)),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	// wrap the constructed Basecamp so it is exposed to all HTTP handlers.
	h := BasecampHandler{b}

	// bind routes and handlers to one another.
	// this is a group of routes that share a middleware stack.
	// in this case, no additional middleware is needed
	// beyond the default stack set for every request.
	b.HandleRoutes(
		[]router.Route{
			{Path: "/broken", Method: http.MethodGet, Handler: h.broken},
			{Path: "/incorrect", Method: http.MethodGet, Handler: h.incorrect},
			{Path: "/authed", Method: http.MethodGet, Handler: h.authed},
			{Path: "/", Method: http.MethodGet, Handler: h.root},
		},
	)

	// start the web server until receiving a signal to stop.
	if err := b.Embark(); err != nil {
		fmt.Println(err)
	}
}

// A stubUser satisfies basecamp.BasecampUser;
// no route here ever loads one.
type stubUser struct{}

func (stubUser) HasAccess() bool  { return true }
func (stubUser) HomePath() string { return "/" }
