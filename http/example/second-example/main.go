package main

import (
	"context"
	"embed"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cairnhq/cairn/basecamp"
	. "github.com/cairnhq/cairn/http/resp"
	"github.com/cairnhq/cairn/http/router"
	"github.com/cairnhq/cairn/http/session"
	"github.com/cairnhq/cairn/logger"
	"github.com/cairnhq/cairn/postgres"
)

//go:embed tmpl/*
var files embed.FS

const (
	dir   = "tmpl"
	first = dir + "/first.tmpl"
)

type handler struct {
	*basecamp.Basecamp
}

// root is a fully-formed use of Responder.
func (h handler) root(w http.ResponseWriter, r *http.Request) {
	h.Html(w, r, Unauthed(), Tmpls(first))
}

// initShutdown uses a closure to inject dependencies into our http.Handler,
// showing an alternative pattern to using a struct to accomplish this requirement.
//
// Requesting the endpoint the enclosed function binds to causes the web server
// to shutdown!
//
// As well, this handler continues to use http.ResponseWriter's own methods
// for writing to the client.
// Unless there's functionality in Responder we need,
// no reason to not use the std lib!
func initShutdown(h handler, cancel context.CancelFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.EmitLogger().Debug("see ya!", nil)
		w.WriteHeader(http.StatusOK)
		r.Body.Close()
		cancel()
	})
}

// trailheadClock is a template function saying what the trailhead clock reads.
func trailheadClock() string {
	return time.Now().Format("The trailhead clock reads: 2006-01-02 03:04:05")
}

func main() {
	// Let's setup an application context to be passed to New,
	// we'll have some fun with this in the http.Handler returned by initShutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Let's customize how we log in our app
	// by bringing our own implementation of logger.Logger.
	l := NewPingPonger()

	// Add custom components to the constructing so they override defaults.
	//
	// Notably, this Basecamp swaps the cookie-backed session store
	// for a throwaway one; every visitor shares the single stubbed
	// session it holds in memory.
	b, err := basecamp.New(
		basecamp.Config[stubUser]{FS: files},
		basecamp.WithContext(ctx),
		basecamp.WithDB(postgres.NewDB(nil)),
		basecamp.WithLogger(l),

		// Instead of starting with template.NewParser, this piggybacks
		// off the default parser and adds a custom function
		// our templates can call.
		basecamp.WithParserFn("trailheadClock", trailheadClock),

		basecamp.WithServer(&http.Server{Addr: ":8081"}),
		basecamp.WithSessionStore(session.NewStubStorer(false)),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	h := handler{b}
	b.HandleRoutes([]router.Route{
		{Path: "/", Method: http.MethodGet, Handler: h.root},
		{Path: "/shutdown", Method: http.MethodGet, Handler: initShutdown(h, cancel)},
	})

	if err := b.Embark(); err != nil {
		fmt.Println(err)
		return
	}
}

// A pingPonger logs messages while prepending "ping" or "pong" before it.
type pingPonger struct {
	i  int
	l  logger.Logger
	mu sync.Mutex
}

func NewPingPonger() *pingPonger {
	// skip the wrapping frame each method below adds
	// so log lines name the code calling the pingPonger.
	return &pingPonger{0, logger.NewLogger(logger.WithSkip(1)), sync.Mutex{}}
}

func (p *pingPonger) pingpong() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.i++
	if p.i%2 == 0 {
		return "pong: "
	}

	return "ping: "
}

func (p *pingPonger) Debug(msg string, ctx *logger.LogContext) {
	if p.l.LogLevel() > logger.LogLevelDebug {
		return
	}
	p.l.Debug(p.pingpong()+msg, ctx)
}
func (p *pingPonger) Error(msg string, ctx *logger.LogContext) {
	if p.l.LogLevel() > logger.LogLevelError {
		return
	}
	p.l.Error(p.pingpong()+msg, ctx)
}
func (p *pingPonger) Fatal(msg string, ctx *logger.LogContext) {
	if p.l.LogLevel() > logger.LogLevelFatal {
		return
	}
	p.l.Fatal(p.pingpong()+msg, ctx)
}
func (p *pingPonger) Info(msg string, ctx *logger.LogContext) {
	if p.l.LogLevel() > logger.LogLevelInfo {
		return
	}
	p.l.Info(p.pingpong()+msg, ctx)
}
func (p *pingPonger) Warn(msg string, ctx *logger.LogContext) {
	if p.l.LogLevel() > logger.LogLevelWarn {
		return
	}
	p.l.Warn(p.pingpong()+msg, ctx)
}
func (p *pingPonger) LogLevel() logger.LogLevel { return p.l.LogLevel() }

// A stubUser satisfies basecamp.BasecampUser;
// no route here ever loads one.
type stubUser struct{}

func (stubUser) HasAccess() bool  { return true }
func (stubUser) HomePath() string { return "/" }
