package middleware

import (
	"fmt"
	"net/http"

	"github.com/cairnhq/cairn"
	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/http/session"
)

// An AuthorizeApplicator constructs Adapters that apply custom authorization rules
// for users, as specified by type T.
type AuthorizeApplicator[T any] struct {
	d *fail.Responder
}

// NewAuthorizeApplicator constructs an AuthorizeApplicator for type T.
// Apply methods for the constructed AuthorizeApplicator will use the Responder
// for rendering authorization failures.
// Apply methods will use cairn.CurrentUserKey to pull a user out of the request Context.
func NewAuthorizeApplicator[T any](d *fail.Responder) AuthorizeApplicator[T] {
	return AuthorizeApplicator[T]{d}
}

// Apply wraps a custom function validating the authorization of a user,
// whose type is specified by T.
//
// Apply retrieves the value for the cairn.CurrentUserKey from the request Context.
// Apply should not be used in a situation where the http.Request.Context
// in some cases stores the requisite value and others does not;
// a missing user fails the request through the Responder with a 500.
//
// The provided custom function returns either true and an empty string -
// meaning the user is authorized - or false and a valid URL as a string.
//
// If the custom function returns true,
// Apply passes the request to the next handler in the middleware stack.
//
// If the custom function returns false,
// Apply does not pass the request to the next handler in the middleware stack.
//
// Instead, Apply takes one of two actions
// depending on the "Accept" HTTP header of the request.
//   - If "text/html" leads the "Accept" header,
//     Apply sets a "no access" flash on the session in the request Context
//     and redirects to the URL the custom function returns.
//   - Otherwise, Apply fails the request through the Responder with a 401.
//
// If fn is nil, Apply returns a NoopAdapter.
func (aa AuthorizeApplicator[T]) Apply(fn func(user T) (string, bool)) Adapter {
	if fn == nil {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			doRedirect := acceptsTextHtml(r.Header)

			val, ok := r.Context().Value(cairn.CurrentUserKey).(T)
			if !ok {
				err := fmt.Errorf("%w: no %T in request context", cairn.ErrNotExist, val)
				aa.d.Handle(w, r, http.StatusInternalServerError, err)
				return
			}

			if url, ok := fn(val); !ok {
				if doRedirect {
					aa.redirect(w, r, url)
					return
				}

				aa.d.Handle(w, r, http.StatusUnauthorized, nil)
				return
			}

			handler.ServeHTTP(w, r)
		})
	}
}

// redirect flashes the "no access" message on the request's session
// before sending the client to url.
func (aa AuthorizeApplicator[T]) redirect(w http.ResponseWriter, r *http.Request, url string) {
	if url == "" {
		url = "/"
	}

	s, ok := r.Context().Value(cairn.SessionKey).(session.FlashSessionable)
	if !ok {
		err := fmt.Errorf("%w: no session in request context", cairn.ErrNotExist)
		aa.d.Handle(w, r, http.StatusInternalServerError, err)
		return
	}

	f := session.Flash{Class: session.FlashWarning, Msg: session.NoAccessMsg}
	if err := s.SetFlash(w, r, f); err != nil {
		aa.d.Handle(w, r, http.StatusInternalServerError, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}
