package fail

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"regexp"

	"github.com/cairnhq/cairn"
	"github.com/cairnhq/cairn/logger"
	"github.com/getsentry/sentry-go"
)

const responderFrames = 0

// defaultTmplName names the page template compiled into the package.
const defaultTmplName = "error.tmpl"

//go:embed error.tmpl
var defaultTmpl embed.FS

// crlfRegexp matches the characters stripped from exposed failure messages
// so a message can never continue the header block.
var crlfRegexp = regexp.MustCompile(`[\r\n]`)

// Responder turns failed HTTP requests into complete error responses,
// negotiating the body's media type between what the response already declares,
// what the route produces, and what the client accepts.
//
// A Responder holds no per-request state.
// Most oftentimes, setting up a single instance for an application suffices,
// shared by every handler and middleware that can fail a request.
type Responder struct {
	logger logger.Logger

	// Built-in renderers, additional renderers, then fallback, in match order
	renderers []Renderer

	// Renderer writing the bare text body no negotiation can refuse
	fallback Renderer

	// Renderers registered through WithRenderer
	extra []Renderer

	// Whether rendered bodies expose the failure's message and stack
	detail bool

	tmplFS   fs.FS
	tmplName string
}

// NewResponder constructs a *Responder using the ResponderOptFns passed in.
//
// The page template HTML bodies render from is read once, here;
// NewResponder fails with [ErrMissingTemplate] when it cannot be read,
// rather than letting every handled failure fail again at render time.
func NewResponder(opts ...ResponderOptFn) (*Responder, error) {
	// ranging over opts may or may not overwrite defaults
	d := &Responder{
		tmplFS:   defaultTmpl,
		tmplName: defaultTmplName,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logger.NewLogger()
	}

	if l, ok := d.logger.(logger.SkipLogger); ok {
		d.logger = l.AddSkip(responderFrames)
	}

	if d.tmplFS == nil || d.tmplName == "" {
		return nil, fmt.Errorf("%w: no template configured", ErrMissingTemplate)
	}

	b, err := fs.ReadFile(d.tmplFS, d.tmplName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingTemplate, err)
	}

	d.fallback = textRenderer{}
	d.renderers = append([]Renderer{htmlRenderer{tmpl: string(b)}, jsonRenderer{}}, d.extra...)
	d.renderers = append(d.renderers, d.fallback)

	return d, nil
}

// Handle responds to a failed request.
//
// code is the status recorded when the request failed;
// 0 means none was and becomes 500 Internal Server Error.
// cause is the error that failed the request and may be nil.
//
// The body's media type comes from the first match among the
// Content-Type the response already declares, the content type the
// route produces, and then each entry of the client's Accept header
// in priority order; a request matching none of those still receives
// the bare text body.
//
// When the response header already flushed to the client,
// no coherent error response remains available:
// Handle logs cause and severs the connection instead.
func (doer *Responder) Handle(w http.ResponseWriter, r *http.Request, code int, cause error) {
	if headerFlushed(w) {
		doer.logger.Error("unexpected error on route", &logger.LogContext{Error: cause, Request: r})
		doer.close(w)
		return
	}

	if code == 0 {
		code = http.StatusInternalServerError
	}

	rep := Report{Code: code, Message: statusText(code)}
	if doer.detail && cause != nil {
		if msg := cause.Error(); msg != "" {
			rep.Message = crlfRegexp.ReplaceAllString(msg, " ")
			if resp, ok := w.(*Response); ok {
				resp.setStatusText(rep.Message)
			}
		}
		rep.Trace = trace(cause)
	}

	if doer.respondDeclared(w, r, rep) {
		return
	}

	if doer.respondAccepted(w, r, rep) {
		return
	}

	doer.write(w, doer.fallback, rep)
}

// respondDeclared renders rep in the media type the response or route
// already committed to, if there is one and a Renderer handles it.
//
// A Content-Type set on the response takes precedence over the route's
// declared content type even when no Renderer handles it.
func (doer *Responder) respondDeclared(w http.ResponseWriter, r *http.Request, rep Report) bool {
	mime := w.Header().Get("Content-Type")
	if mime == "" {
		mime, _ = r.Context().Value(cairn.RouteFormatKey).(string)
	}

	return mime != "" && doer.respond(w, mime, rep)
}

// respondAccepted renders rep in the most preferred media type of the
// client's Accept header that a Renderer handles.
func (doer *Responder) respondAccepted(w http.ResponseWriter, r *http.Request, rep Report) bool {
	for _, accept := range ParseAccept(r.Header.Get("Accept")) {
		if doer.respond(w, accept.Type, rep) {
			return true
		}
	}

	return false
}

// respond renders rep with the first Renderer matching mime, if any.
func (doer *Responder) respond(w http.ResponseWriter, mime string, rep Report) bool {
	for _, renderer := range doer.renderers {
		if renderer.Matches(mime) {
			doer.write(w, renderer, rep)
			return true
		}
	}

	return false
}

func (doer *Responder) write(w http.ResponseWriter, renderer Renderer, rep Report) {
	body, contentType := renderer.Render(rep)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(rep.Code)
	w.Write(body)
}

// close severs the client connection underneath w.
//
// Failures hijacking the connection have no handler left to report to
// and swallow silently.
func (doer *Responder) close(w http.ResponseWriter) {
	conn, _, err := http.NewResponseController(w).Hijack()
	if err != nil {
		return
	}

	conn.Close()
}

// statusText returns the standard reason phrase for code,
// substituting a marker for codes outside the standard set.
func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}

	return fmt.Sprintf("Unknown Status (%d)", code)
}

// trace renders the stack belonging to cause, newest frame first.
//
// Frames recorded at the failure site take precedence;
// causes carrying no recorded stack trace from the current call stack instead.
func trace(cause error) []string {
	st := sentry.ExtractStacktrace(cause)
	if st == nil {
		st = sentry.NewStacktrace()
	}
	if st == nil || len(st.Frames) == 0 {
		return nil
	}

	frames := make([]string, 0, len(st.Frames))
	for i := len(st.Frames) - 1; i >= 0; i-- {
		f := st.Frames[i]
		frames = append(frames, fmt.Sprintf("%s.%s (%s:%d)", f.Module, f.Function, path.Base(f.AbsPath), f.Lineno))
	}

	return frames
}
