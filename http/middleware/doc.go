/*
The middleware package defines what a middleware is in cairn and a set of basic middlewares.

The available middlewares are:
- CORS
- CatchPanic
- CurrentUser
- ForceHTTPS
- Idempotent
- InjectIPAddress
- InjectResponder
- InjectSession
- LogRequest
- RateLimit
- ReportPanic
- RequestID
- TrackResponse

Due to the amount of configuration required, middleware does not provide a default middleware chain.
Instead, the following can be copy-pasted:

	vs := middleware.NewVisitors()
	adpts := []middleware.Adapter{
		middleware.TrackResponse(),
		middleware.RateLimit(responder, vs),
		middleware.ForceHTTPS(env),
		middleware.RequestID(requestIDKey),
		middleware.InjectIPAddress(),
		middleware.LogRequest(log),
		middleware.CatchPanic(log, responder),
		middleware.ReportPanic(env),
		middleware.InjectSession(sessionStore, sessionKey),
		middleware.CurrentUser(responder, userStore, sessionKey, userKey),
	}

CatchPanic sits outside ReportPanic so the Sentry SDK captures the panic
first and CatchPanic then renders it as a 500.
*/
package middleware
