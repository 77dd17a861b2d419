package middleware

import (
	"net/http"

	"github.com/cairnhq/cairn"
	sentryhttp "github.com/getsentry/sentry-go/http"
)

// ReportPanic wraps the handler with the Sentry SDK's recovery integration
// so panics reach Sentry.
//
// The panic continues up the chain after capture;
// install CatchPanic outside ReportPanic to turn it into a rendered 500.
//
// In environments not serving real traffic, NoopAdapter returns
// and this middleware does nothing.
func ReportPanic(env cairn.Environment) Adapter {
	if !env.Deployed() {
		return NoopAdapter
	}

	sh := sentryhttp.New(sentryhttp.Options{
		Repanic:         true,
		WaitForDelivery: true,
	})

	return func(handler http.Handler) http.Handler {
		return sh.Handle(handler)
	}
}
