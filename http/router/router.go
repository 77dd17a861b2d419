package router

import (
	"context"
	"net/http"

	"github.com/cairnhq/cairn"
	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/http/keyring"
	"github.com/cairnhq/cairn/http/middleware"
	"github.com/gorilla/mux"
)

const (
	assetsPath       = "/assets/"
	assetsPublicPath = "client/public/"
	clientDistPath   = "client/dist/"
)

// A Route maps a path and HTTP method to an [http.HandlerFunc].
// Additional [middleware.Adapter] can be called when a server handles
// a request matching the Route.
//
// Produces optionally declares the content type the Route responds with.
// The [*fail.Responder] renders failures on the Route in that content type
// when the client's "Accept" header does not say otherwise.
type Route struct {
	Path        string
	Method      string
	Handler     http.HandlerFunc
	Middlewares []middleware.Adapter
	Produces    string
}

// A Router registers Routes and their middleware stacks
// and directs requests to them.
type Router interface {
	http.Handler

	AuthedRoutes(loginUrl, logoffUrl string, routes []Route, middlewares ...middleware.Adapter)
	CatchAll(handler http.HandlerFunc)
	Handle(route Route)
	HandleNotFound(handler http.HandlerFunc)
	HandleRoutes(routes []Route, middlewares ...middleware.Adapter)
	OnEveryRequest(middlewares ...middleware.Adapter)
	Subrouter(prefix string) Router
	SubrouterHost(host string) Router
	UnauthedRoutes(routes []Route, middlewares ...middleware.Adapter)
}

// A DefaultRouter implements Router atop [mux.Router],
// routing requests for resources in a standard cairn app layout.
type DefaultRouter struct {
	Env           cairn.Environment
	d             *fail.Responder
	everyReqStack []middleware.Adapter
	logReq        middleware.Adapter
	r             *mux.Router
	userKey       keyring.Keyable
}

var _ Router = &DefaultRouter{}

// NewRouter constructs a [*DefaultRouter] for the given environment.
//
// Requests no registered Route matches - an unknown path,
// or a known path with the wrong method - fail through the [*fail.Responder]
// with a 404 or 405; HandleNotFound replaces the former.
//
// userKey is the context key CurrentUser middleware stores a User under;
// AuthedRoutes and UnauthedRoutes check it.
func NewRouter(env cairn.Environment, d *fail.Responder, userKey keyring.Keyable, logReq middleware.Adapter) *DefaultRouter {
	if logReq == nil {
		logReq = middleware.NoopAdapter
	}

	r := mux.NewRouter()
	cacheControl := cacheControlMiddleware()

	assetsServer := http.FileServer(http.Dir(assetsPublicPath))
	clientServer := http.FileServer(http.Dir(clientDistPath))

	// NOTE(tmk): direct reqs for the client to its distribution
	r.PathPrefix("/" + clientDistPath).Handler(middleware.Chain(
		http.StripPrefix("/"+clientDistPath, clientServer),
		cacheControl,
		logReq,
	))

	// NOTE(tmk): direct reqs for assets to public path
	r.PathPrefix(assetsPath).Handler(middleware.Chain(
		http.StripPrefix(assetsPath, assetsServer),
		cacheControl,
		logReq,
	))

	if d != nil {
		r.NotFoundHandler = middleware.Chain(http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
			d.Handle(wx, rx, http.StatusNotFound, nil)
		}), logReq)
		r.MethodNotAllowedHandler = middleware.Chain(http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
			d.Handle(wx, rx, http.StatusMethodNotAllowed, nil)
		}), logReq)
	}

	return &DefaultRouter{Env: env, d: d, logReq: logReq, r: r, userKey: userKey}
}

// AuthedRoutes registers the set of Routes as those requiring authentication.
// AuthedRoutes applies the given middlewares before performing that check,
// using middleware.RequireAuthed.
//
// middleware.RequireAuthed requires loginUrl and logoffUrl to appropriately
// redirect applicable requests.
func (r *DefaultRouter) AuthedRoutes(
	loginUrl,
	logoffUrl string,
	routes []Route,
	middlewares ...middleware.Adapter,
) {
	mws := append(middlewares, middleware.RequireAuthed(r.d, r.userKey, loginUrl, logoffUrl))
	r.HandleRoutes(routes, mws...)
}

// CatchAll sets up a handler for all routes to funnel to for e.g. maintenance mode.
func (r *DefaultRouter) CatchAll(handler http.HandlerFunc) {
	r.r.PathPrefix("/").Handler(
		middleware.Chain(
			middleware.ReportPanic(r.Env)(handler),
			r.everyReqStack...,
		),
	)
}

// Handle applies the [Route] to the [*DefaultRouter].
func (r *DefaultRouter) Handle(route Route) {
	r.HandleRoutes([]Route{route})
}

// HandleNotFound sets the provided [http.HandlerFunc] as the default function
// for when no other registered Route is matched.
func (r *DefaultRouter) HandleNotFound(handler http.HandlerFunc) {
	r.r.NotFoundHandler = middleware.Chain(
		middleware.ReportPanic(r.Env)(handler),
		r.logReq,
	)
}

// HandleRoutes registers the set of Routes on the Router
// and includes all the [middleware.Adapter] on each Route.
// Any [middleware.Adapter] already assigned to a Route is appended to middlewares,
// so are called after the default set.
func (r *DefaultRouter) HandleRoutes(routes []Route, middlewares ...middleware.Adapter) {
	for _, route := range routes {
		mws := make([]middleware.Adapter, 0, len(r.everyReqStack)+len(middlewares)+len(route.Middlewares)+1)
		mws = append(mws, r.everyReqStack...)
		mws = append(mws, middlewares...)
		mws = append(mws, route.Middlewares...)
		if route.Produces != "" {
			mws = append(mws, routeFormatMiddleware(route.Produces))
		}

		handler := middleware.Chain(middleware.ReportPanic(r.Env)(route.Handler), mws...)
		r.r.Handle(route.Path, handler).Methods(route.Method)
	}
}

// OnEveryRequest appends the middlewares to the existing stack
// that the [*DefaultRouter] will apply to every request.
func (r *DefaultRouter) OnEveryRequest(middlewares ...middleware.Adapter) {
	r.everyReqStack = append(r.everyReqStack, middlewares...)
}

// ServeHTTP responds to an HTTP request.
func (r *DefaultRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.r.ServeHTTP(w, req)
}

// SubrouterHost constructs a [Router] that handles requests
// whose "Host" matches host.
func (r *DefaultRouter) SubrouterHost(host string) Router {
	return &DefaultRouter{
		Env:           r.Env,
		d:             r.d,
		everyReqStack: r.everyReqStack,
		logReq:        r.logReq,
		r:             r.r.Host(host).Subrouter(),
		userKey:       r.userKey,
	}
}

// Subrouter constructs a [Router] that handles requests to endpoints matching the prefix.
//
// e.g., r.Subrouter("/api/v1") handles requests to endpoints like /api/v1/users
func (r *DefaultRouter) Subrouter(prefix string) Router {
	return &DefaultRouter{
		Env:           r.Env,
		d:             r.d,
		everyReqStack: r.everyReqStack,
		logReq:        r.logReq,
		r:             r.r.PathPrefix(prefix).Subrouter(),
		userKey:       r.userKey,
	}
}

// UnauthedRoutes registers the set of Routes as those requiring unauthenticated users.
// It applies the given middlewares before performing that check.
func (r *DefaultRouter) UnauthedRoutes(routes []Route, middlewares ...middleware.Adapter) {
	r.HandleRoutes(routes, append(middlewares, middleware.RequireUnauthed(r.d, r.userKey))...)
}

// cacheControlMiddleware helps by adding a "Cache-Control" header to the response.
func cacheControlMiddleware() middleware.Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "max-age=2592000") // 30 days
			handler.ServeHTTP(w, r)
		})
	}
}

// routeFormatMiddleware stashes the content type a Route produces
// in the request context under cairn.RouteFormatKey.
func routeFormatMiddleware(format string) middleware.Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), cairn.RouteFormatKey, format)
			handler.ServeHTTP(w, r.Clone(ctx))
		})
	}
}
