package resp

import (
	"net/url"
	"sort"

	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/http/keyring"
	"github.com/cairnhq/cairn/http/template"
	"github.com/cairnhq/cairn/logger"
)

// A ResponderOptFn mutates the provided *Responder in some way.
// A ResponderOptFn is used when constructing a new Responder.
type ResponderOptFn func(*Responder)

// WithAdditionalScriptsTemplate sets the template identified by the filepath to use for rendering
// alongside Authed and Unauthed templates.
func WithAdditionalScriptsTemplate(fp string) ResponderOptFn {
	return func(d *Responder) {
		d.templates.additionalScripts = fp
	}
}

// WithAuthTemplate sets the template identified by the filepath to use for rendering
// when a user is authenticated.
//
// Authed requires this option.
func WithAuthTemplate(fp string) ResponderOptFn {
	return func(d *Responder) {
		d.templates.authed = fp
	}
}

// WithContactErrMsg sets the error message to use for error Flashes.
//
// We recommend using session.ContactUsErr as a template.
func WithContactErrMsg(msg string) ResponderOptFn {
	return func(d *Responder) {
		d.contactErrMsg = msg
	}
}

// WithCtxKeys sets the keys Vue pulls additional values
// out of the *http.Request.Context with.
//
// Keys are deduplicated and sorted, and zero-value keys dropped.
func WithCtxKeys(keys ...keyring.Keyable) ResponderOptFn {
	return func(d *Responder) {
		set := make(map[string]keyring.Keyable, len(keys))
		for _, k := range keys {
			if k == nil || k.Key() == "" {
				continue
			}

			set[k.Key()] = k
		}

		if len(set) == 0 {
			return
		}

		uniqued := make([]keyring.Keyable, 0, len(set))
		for _, k := range set {
			uniqued = append(uniqued, k)
		}

		sort.Sort(keyring.ByKeyable(uniqued))
		d.ctxKeys = uniqued
	}
}

// WithErrTemplate sets the template identified by the filepath to use for rendering
// when an unexpected, unhandled error occurs while composing another response.
func WithErrTemplate(fp string) ResponderOptFn {
	return func(d *Responder) {
		d.templates.err = fp
	}
}

// WithFailResponder sets the *fail.Responder to hand failures to
// when no other response can be formed,
// rendering them in the content type the client negotiated.
//
// Without this option, failures fall back to http.Error.
func WithFailResponder(f *fail.Responder) ResponderOptFn {
	return func(d *Responder) {
		d.fl = f
	}
}

// WithLogger sets the provided implementation of Logger in order to log all statements through it.
//
// If no Logger is provided through this option, a default Logger will be configured.
func WithLogger(log logger.Logger) ResponderOptFn {
	return func(d *Responder) {
		d.logger = log
	}
}

// WithParser sets the provided *template.Parser to use for parsing HTML templates.
func WithParser(p *template.Parser) ResponderOptFn {
	return func(d *Responder) {
		d.parser = p
	}
}

// WithRootURL sets the provided URL after parsing it into a *url.URL to use for rendering and redirecting.
//
// NOTE: If u fails parsing by url.ParseRequestURI, the root URL becomes https://example.com
func WithRootURL(u string) ResponderOptFn {
	good, err := url.ParseRequestURI(u)
	if err != nil {
		good, _ = url.ParseRequestURI("https://example.com")
	}

	return func(d *Responder) {
		d.rootURL = good
	}
}

// WithSessionKey sets the key Session pulls the session
// out of the *http.Request.Context with.
func WithSessionKey(key keyring.Keyable) ResponderOptFn {
	return func(d *Responder) {
		d.sessionKey = key
	}
}

// WithUnauthTemplate sets the template identified by the filepath to use for rendering
// when a user is not authenticated.
//
// Unauthed requires this option.
func WithUnauthTemplate(fp string) ResponderOptFn {
	return func(d *Responder) {
		d.templates.unauthed = fp
	}
}

// WithUserSessionKey sets the key CurrentUser pulls the user
// out of the *http.Request.Context with.
func WithUserSessionKey(key keyring.Keyable) ResponderOptFn {
	return func(d *Responder) {
		d.userSessionKey = key
	}
}

// WithVueTemplate sets the template identified by the filepath to use for rendering
// a Vue client application.
//
// Vue requires this option.
func WithVueTemplate(fp string) ResponderOptFn {
	return func(d *Responder) {
		d.templates.vue = fp
	}
}

// WithVueScriptsTemplate sets the template identified by the filepath to use for rendering
// additional scripts within a Vue client application.
//
// Vue requires this option.
func WithVueScriptsTemplate(fp string) ResponderOptFn {
	return func(d *Responder) {
		d.templates.vueScripts = fp
	}
}
