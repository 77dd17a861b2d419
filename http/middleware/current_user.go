package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/http/keyring"
	"github.com/cairnhq/cairn/http/session"
)

// The User defines attributes about a user in the context of middleware.
type User interface {
	HasAccess() bool
	HomePath() string
}

// UserStorer defines how to retrieve a User by an ID in the context of middleware.
type UserStorer func(id uint) (User, error)

// CurrentUser pulls the User out of the session.CairnSessionable stored
// in the *http.Request.Context and stashes it under userKey.
//
// A request with a session naming no user passes through untouched;
// whether that is acceptable is for access control middlewares to determine.
//
// A request with a session naming a user that cannot be retrieved,
// or whose access was revoked, fails through the *fail.Responder,
// which renders the failure in the content type the client negotiates.
func CurrentUser(d *fail.Responder, storer UserStorer, sessionKey, userKey keyring.Keyable) Adapter {
	if d == nil || storer == nil || sessionKey == nil || userKey == nil {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := r.Context().Value(sessionKey).(session.CairnSessionable)
			if !ok {
				d.Handle(w, r, http.StatusUnauthorized, nil)
				return
			}

			uid, err := s.UserID()
			if err != nil {
				// NOTE(tmk): there is no User in the session,
				// request may be accessing an unauthenticated endpoint,
				// maybe not, something for access control middlewares to determine
				handler.ServeHTTP(w, r)
				return
			}

			user, err := storer(uid)
			if err != nil {
				if err := s.Delete(w, r); err != nil {
					d.Handle(w, r, http.StatusInternalServerError, err)
					return
				}

				d.Handle(w, r, http.StatusUnauthorized, err)
				return
			}

			if !user.HasAccess() {
				s.ClearFlashes(w, r)
				if err := s.DeregisterUser(w, r); err != nil {
					d.Handle(w, r, http.StatusInternalServerError, err)
					return
				}

				d.Handle(w, r, http.StatusUnauthorized, nil)
				return
			}

			if err := s.ResetExpiry(w, r); err != nil {
				s.Delete(w, r) // NOTE(tmk): ignore delete error
				d.Handle(w, r, http.StatusInternalServerError, err)
				return
			}

			w.Header().Add("Cache-control", "no-store")
			w.Header().Add("Pragma", "no-cache")

			ctx := context.WithValue(r.Context(), userKey, user)
			handler.ServeHTTP(w, r.Clone(ctx))
		})
	}
}

// RequireUnauthed returns a middleware.Adapter that checks whether a user is authenticated
// and requires they not be authenticated.
// When they are not authenticated, RequireUnauthed hands off to the next part of the middleware chain.
//
// Authenticated means a User is set in the request context with the provided key.
//
// When the User is authenticated and the request accepts rendered HTML,
// RequireUnauthed redirects to the User's HomePath;
// all other requests fail through the *fail.Responder with a 400.
func RequireUnauthed(d *fail.Responder, key keyring.Keyable) Adapter {
	if d == nil {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cu, ok := r.Context().Value(key).(User); ok {
				if acceptsTextHtml(r.Header) {
					http.Redirect(w, r, cu.HomePath(), http.StatusTemporaryRedirect)
					return
				}

				d.Handle(w, r, http.StatusBadRequest, nil)
				return
			}

			handler.ServeHTTP(w, r)
		})
	}
}

// RequireAuthed returns a middleware.Adapter that checks whether a User is authenticated,
// and requires they be authenticated.
// When the User is authenticated, then RequireAuthed hands off to the next part of the middleware chain.
//
// Authenticated means a User is set in the request context with the provided key.
//
// When the User is not authenticated and the request accepts rendered HTML,
// RequireAuthed redirects to the provided login URL;
// all other requests fail through the *fail.Responder with a 401.
//
// The URL originally requested is appended as a "next" query param
// when the request method is GET and the endpoint is not the logoff URL.
func RequireAuthed(d *fail.Responder, key keyring.Keyable, loginUrl, logoffUrl string) Adapter {
	if d == nil {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Value(key).(User); !ok {
				if acceptsTextHtml(r.Header) {
					u := loginUrl
					if r.Method == http.MethodGet && r.URL.Path != logoffUrl {
						u += "?next=" + url.QueryEscape(r.URL.String())
					}

					http.Redirect(w, r, u, http.StatusTemporaryRedirect)
					return
				}

				d.Handle(w, r, http.StatusUnauthorized, nil)
				return
			}

			handler.ServeHTTP(w, r)
		})
	}
}

// acceptsTextHtml asserts whether the request accepts rendered HTML or not.
func acceptsTextHtml(header http.Header) bool {
	return strings.HasPrefix(header.Get("Accept"), "text/html")
}
