package resp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sync"

	"github.com/cairnhq/cairn"
	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/http/keyring"
	"github.com/cairnhq/cairn/http/session"
	"github.com/cairnhq/cairn/http/template"
	"github.com/cairnhq/cairn/logger"
)

// responderFrames is the number of stack frames between a Responder method
// and the calling code whose call site ought to be logged.
const responderFrames = 0

// Responder maintains reusable pieces for responding to HTTP requests.
// It exposes many common methods for writing structured data as an HTTP response.
// These are the forms of response Responder can execute:
//
//	Html
//	Json
//	Redirect
//
// Most oftentimes, setting up a single instance of a Responder suffices for an application.
// Meaning, one needs only application-wide configuration of how HTTP responses should look.
// Our suggestion does not exclude creating diverse Responders
// for non-overlapping segments of an application.
//
// When handling a specific HTTP request, calling code supplies additional data, structure,
// and so forth through Fn functions. While one can create functions of the same type,
// the Responder and Response structs do not expose much - if anything - to interact with.
type Responder struct {
	logger logger.Logger

	// Negotiated failure writer to hand errors to
	// when no other response can be formed
	fl *fail.Responder

	// Initialized template parser
	parser *template.Parser

	// Pool of *bytes.Buffer to prerender responses into
	pool *sync.Pool

	// Error message to use for "contact us" style client-side error messages,
	// i.e., those set in a session.Flash
	contactErrMsg string

	// Root URL the responder is listening on, also used when in an error state
	rootURL *url.URL

	// Keys for pulling specific values out of the *http.Request.Context
	ctxKeys []keyring.Keyable

	// Key the session is stashed under in the *http.Request.Context
	sessionKey keyring.Keyable

	// Key the current user is stashed under in the *http.Request.Context
	userSessionKey keyring.Keyable

	templates templateSet
}

// templateSet collects the filepaths of the templates a Responder renders.
type templateSet struct {
	// Template of additional scripts to append to authed and unauthed renders
	additionalScripts string

	// Root template to render when user is authenticated
	authed string

	// Root template to render when an error occurs
	// and no other response can be formed
	err string

	// Root template to render when user is not authenticated
	unauthed string

	// Vue template to render when rendering a Vue app
	vue string

	// Template of scripts to append to Vue renders
	vueScripts string
}

// NewResponder constructs a *Responder using the ResponderOptFns passed in.
//
// The session and current user keys default to cairn.SessionKey and cairn.CurrentUserKey.
func NewResponder(opts ...ResponderOptFn) *Responder {
	d := &Responder{
		pool:           &sync.Pool{New: func() any { return new(bytes.Buffer) }},
		sessionKey:     cairn.SessionKey,
		userSessionKey: cairn.CurrentUserKey,
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

	if d.parser != nil {
		d.parser.AddFn(template.Nonce())
		if d.rootURL != nil {
			d.parser.AddFn(template.RootURL(d.rootURL))
		}
	}

	return d
}

// CurrentUser retrieves the user set in the context.
//
// If the context.Context has no value under the Responder's current user key,
// ErrNotFound returns.
func (doer Responder) CurrentUser(ctx context.Context) (any, error) {
	if doer.userSessionKey == nil {
		return nil, fmt.Errorf("%w: no current user key configured", ErrNotFound)
	}

	val := ctx.Value(doer.userSessionKey)
	if val == nil {
		return nil, fmt.Errorf("%w: no user found with %s", ErrNotFound, doer.userSessionKey)
	}

	return val, nil
}

// Err responds with the error causing the failure state, logging it first.
//
// When the Responder is configured with a fail.Responder,
// the failure renders in the content type the client negotiated.
// Otherwise, Err wraps http.Error().
//
// Use in exceptional circumstances when no Redirect or Html can occur.
func (doer *Responder) Err(w http.ResponseWriter, r *http.Request, err error, opts ...Fn) {
	rr, nested := doer.do(w, r, append(opts, Err(err))...)
	defer r.Body.Close()
	if nested != nil {
		if err == nil {
			err = nested
		} else {
			err = fmt.Errorf("%w: %s", err, nested)
		}
	}

	code := http.StatusInternalServerError
	if rr != nil && rr.code != 0 {
		code = rr.code
	}

	if doer.fl != nil {
		doer.fl.Handle(w, r, code, err)
		return
	}

	var msg string
	if err != nil {
		msg = err.Error()
	}

	http.Error(w, msg, code)
}

// Html composes together HTML templates set in *Responder
// and configured by Authed, Unauthed, Tmpls and other such calls.
//
// Html renders the templates with this data structure:
//
//	{
//		Data:    any value set by Data()
//		Flashes: flash messages pulled out of the session
//	}
//
// When the response cannot be composed, Html writes the Responder's error template,
// or hands the failure to the fail.Responder when that template cannot render,
// and returns the underlying error.
func (doer *Responder) Html(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return doer.handleHtmlError(w, r, err)
	}

	defer r.Body.Close()

	if doer.parser == nil {
		return doer.handleHtmlError(w, r, fmt.Errorf("%w: no parser configured", ErrBadConfig))
	}

	if len(rr.tmpls) == 0 {
		return doer.handleHtmlError(w, r, fmt.Errorf("%w: no templates to render", ErrMissingData))
	}

	if rr.tmpls[0] == doer.templates.authed {
		// NOTE(tmk): a user is required for an authenticated context.
		// while Authed() also populates the user,
		// this guards against misuse like Html(Tmpls(authedTmpl, otherTmpl)).
		if err := populateUser(*doer, rr); err != nil {
			return doer.handleHtmlError(w, r, err)
		}

		doer.parser.AddFn(template.CurrentUser(rr.user))
	}

	tmpl, err := doer.parser.Parse(rr.tmpls...)
	if err != nil {
		return doer.handleHtmlError(w, r, fmt.Errorf("cannot parse: %w", err))
	}

	rd := struct {
		Data    any
		Flashes []session.Flash
	}{Data: rr.data}

	s, err := doer.Session(r.Context())
	if err != nil {
		return doer.handleHtmlError(w, r, fmt.Errorf("can't retrieve session: %w", err))
	}

	rd.Flashes = s.Flashes(w, r)

	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer doer.pool.Put(b)

	if err := tmpl.ExecuteTemplate(b, path.Base(rr.tmpls[0]), rd); err != nil {
		return doer.handleHtmlError(w, r, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if rr.code != 0 {
		w.WriteHeader(rr.code)
	}

	if _, err := b.WriteTo(w); err != nil {
		return err
	}

	return nil
}

type jsonSchema struct {
	D any `json:"data,omitempty"`
	U any `json:"currentUser,omitempty"`
}

// Json responds with data in JSON format, collating it from User(), Data() and setting appropriate headers.
//
// When standard 2xx codes are supplied, the JSON schema will look like this:
//
//	{
//		"currentUser": {},
//		"data": {}
//	}
//
// Otherwise, "currentUser" is elided.
//
// User() calls populate "currentUser"
// Data() calls populate "data"
func (doer *Responder) Json(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return err
	}

	defer r.Body.Close()

	if rr.code == 0 {
		if err := Code(http.StatusOK)(*doer, rr); err != nil {
			return err
		}
	}

	payload := jsonSchema{D: rr.data}
	if rr.code >= http.StatusOK && rr.code <= http.StatusNoContent {
		payload.U = rr.user
	}

	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer doer.pool.Put(b)

	if err := json.NewEncoder(b).Encode(payload); err != nil {
		doer.Err(w, r, err)
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(rr.code)
	if _, err := b.WriteTo(w); err != nil {
		return err
	}

	return nil
}

// Redirect calls http.Redirect, given Url() set the redirect destination.
// If Url() is not passed in opts, then ToRoot() sets the redirect destination.
//
// The default response status code is 302.
//
// If Code() set the status code to something other than standard redirect 3xx statuses,
// Redirect overwrites the status code with an appropriate 3xx status code.
func (doer *Responder) Redirect(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return err
	}

	defer r.Body.Close()

	if rr.url == nil {
		if err := ToRoot()(*doer, rr); err != nil {
			return err
		}
	}

	switch {
	case rr.code >= http.StatusMultipleChoices && rr.code <= http.StatusPermanentRedirect:
		// NOTE(tmk): code is already a 3xx, so do nothing
	case rr.code >= http.StatusBadRequest && rr.code < http.StatusInternalServerError:
		rr.code = http.StatusSeeOther
	case rr.code >= http.StatusInternalServerError:
		rr.code = http.StatusTemporaryRedirect
	default:
		rr.code = http.StatusFound
	}

	http.Redirect(w, r, rr.url.String(), rr.code)
	return nil
}

// Session retrieves the session set in the context as a session.CairnSessionable.
//
// If the context.Context has no value under the Responder's session key,
// ErrNotFound returns.
func (doer Responder) Session(ctx context.Context) (session.CairnSessionable, error) {
	if doer.sessionKey == nil {
		return nil, fmt.Errorf("%w: no session key configured", ErrNotFound)
	}

	val := ctx.Value(doer.sessionKey)
	if val == nil {
		return nil, fmt.Errorf("%w: no session found with %s", ErrNotFound, doer.sessionKey)
	}

	s, ok := val.(session.CairnSessionable)
	if !ok {
		return nil, fmt.Errorf("%w: is not session.CairnSessionable, is %T", ErrInvalid, val)
	}

	return s, nil
}

// do applies all options to the passed in http.ResponseWriter and *http.Request.
//
// Calling code ought to pass Options in the correct order.
// An option requiring something set by another one should come after.
// do nonetheless attempts to retry calling functional options until all do not return errors or,
// a set of options unable to not return errors is reached.
//
// Should all options apply successfully, do returns a validly formed *Response.
func (doer *Responder) do(w http.ResponseWriter, r *http.Request, opts ...Fn) (*Response, error) {
	resp := &Response{
		w:     w,
		r:     r,
		tmpls: make([]string, 0),
	}

	redos := make([]Fn, 0)
	for _, opt := range opts {
		select {
		case <-r.Context().Done():
			return nil, fmt.Errorf("%w", ErrDone)
		default:
			if err := opt(*doer, resp); err != nil {
				redos = append(redos, opt)
			}
		}
	}

	var i int
	for i < len(redos) {
		select {
		case <-r.Context().Done():
			return nil, fmt.Errorf("%w", ErrDone)
		default:
			// NOTE(tmk): because doer.redo mutates the length of redos,
			// confirm we are running up against a set of functions
			// that will not return anything other than errors by checking
			// the length of redos has not changed since calling doer.redo.
			i = len(redos)
			redos = doer.redo(resp, redos...)
		}
	}

	// NOTE(tmk): wrapup errors to send back
	var err error
	for _, opt := range redos {
		nested := opt(*doer, resp)
		if nested == nil {
			continue
		}

		if err == nil {
			err = nested
			continue
		}

		err = fmt.Errorf("%w: %s", nested, err)
	}

	return resp, err
}

// fails hands the failure to the fail.Responder when one is configured,
// falling back to http.Error.
func (doer *Responder) fails(w http.ResponseWriter, r *http.Request, err error) {
	if doer.fl != nil {
		doer.fl.Handle(w, r, http.StatusInternalServerError, err)
		return
	}

	var msg string
	if err != nil {
		msg = err.Error()
	}

	http.Error(w, msg, http.StatusInternalServerError)
}

// handleHtmlError reports err and renders the error template set on the Responder.
//
// When no error template is configured or it cannot render,
// the failure passes to the fail.Responder so the client
// still receives a well-formed failure.
//
// handleHtmlError always returns err for calling code to inspect;
// the HTTP response is already written.
func (doer *Responder) handleHtmlError(w http.ResponseWriter, r *http.Request, err error) error {
	doer.logger.Error(err.Error(), newLogContext(r, err, nil, nil))

	if doer.parser == nil || doer.templates.err == "" {
		doer.fails(w, r, err)
		return err
	}

	tmpl, nested := doer.parser.Parse(doer.templates.err)
	if nested != nil {
		doer.fails(w, r, fmt.Errorf("cannot parse error template: %v: %w", nested, err))
		return err
	}

	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer doer.pool.Put(b)

	if nested := tmpl.Execute(b, map[string]any{"Contact": doer.contactErrMsg, "Error": err}); nested != nil {
		doer.fails(w, r, fmt.Errorf("cannot execute error template: %v: %w", nested, err))
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if _, nested := b.WriteTo(w); nested != nil {
		return fmt.Errorf("%v: %w", nested, err)
	}

	return err
}

// redo applies as many Options as it can, returning those Options that continue to throw an error.
func (doer *Responder) redo(r *Response, opts ...Fn) []Fn {
	bad := make([]Fn, 0)
	for _, opt := range opts {
		if err := opt(*doer, r); err != nil {
			bad = append(bad, opt)
		}
	}

	return bad
}
