package middleware

import (
	"context"
	"net/http"

	"github.com/cairnhq/cairn/http/keyring"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID on responses,
// and on requests whose clients supply their own.
const RequestIDHeader = "X-Request-ID"

// RequestID stashes an ID unique to the request in the request context
// and echoes it in the RequestIDHeader response header.
//
// A well-formed uuid supplied by the client in RequestIDHeader is kept,
// letting an upstream proxy trace a request through;
// anything else is replaced with a fresh uuid.
//
// If key is nil, then NoopAdapter returns and this middleware does nothing.
func RequestID(key keyring.Keyable) Adapter {
	if key == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), key, id)
			h.ServeHTTP(w, r.Clone(ctx))
		})
	}
}
