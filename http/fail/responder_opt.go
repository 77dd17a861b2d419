package fail

import (
	"io/fs"

	"github.com/cairnhq/cairn/logger"
)

// A ResponderOptFn is a functional option for configuring a [Responder]
// through [NewResponder].
type ResponderOptFn func(*Responder)

// WithDetail sets whether rendered bodies expose what actually failed.
//
// When exposed, the failure's message and stack trace reach the client,
// so reserve it for development environments.
func WithDetail(expose bool) ResponderOptFn {
	return func(d *Responder) {
		d.detail = expose
	}
}

// WithLogger sets the [logger.Logger] failed requests are logged with.
func WithLogger(log logger.Logger) ResponderOptFn {
	return func(d *Responder) {
		d.logger = log
	}
}

// WithRenderer registers an additional [Renderer].
//
// Additional Renderers consult in registration order,
// after the built-in HTML and JSON Renderers
// and before the bare text fallback.
func WithRenderer(renderer Renderer) ResponderOptFn {
	return func(d *Responder) {
		d.extra = append(d.extra, renderer)
	}
}

// WithTemplate sets the page template HTML error bodies render from,
// replacing the built-in page.
//
// The template is read once at construction;
// [NewResponder] fails with [ErrMissingTemplate] if name cannot be read from fsys.
func WithTemplate(fsys fs.FS, name string) ResponderOptFn {
	return func(d *Responder) {
		d.tmplFS = fsys
		d.tmplName = name
	}
}
