package middleware

import (
	"fmt"
	"net/http"

	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/logger"
)

// CatchPanic recovers a panicking handler, logs the panic,
// and renders the failure through the *fail.Responder as a 500.
//
// http.ErrAbortHandler panics pass through untouched
// so the server's own abort mechanism keeps working.
//
// If d is nil, NoopAdapter returns and this middleware does nothing.
func CatchPanic(ls logger.Logger, d *fail.Responder) Adapter {
	if d == nil {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}

				if ls != nil {
					ls.Error("panicked serving request", &logger.LogContext{Error: err, Request: r})
				}

				d.Handle(w, r, http.StatusInternalServerError, err)
			}()

			handler.ServeHTTP(w, r)
		})
	}
}
