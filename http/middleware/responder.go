package middleware

import (
	"context"
	"net/http"

	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/http/keyring"
)

// InjectResponder stores a *fail.Responder in the *http.Request.Context
// thereby making it available to handlers.
func InjectResponder(d *fail.Responder, key keyring.Keyable) Adapter {
	if d == nil || key == nil {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), key, d)))
		})
	}
}

// TrackResponse wraps the http.ResponseWriter in a *fail.Response
// so downstream code - the *fail.Responder above all - can tell
// whether the response header already flushed to the client.
//
// Install TrackResponse at the head of the middleware chain.
func TrackResponse() Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler.ServeHTTP(fail.NewResponse(w), r)
		})
	}
}
