package resp

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/cairnhq/cairn/http/session"
	"github.com/cairnhq/cairn/logger"
)

// A Fn is a functional option that mutates the state of the Response.
type Fn func(Responder, *Response) error

// A Response is the internal object a Responder response method builds while applying all
// functional options.
type Response struct {
	w     http.ResponseWriter
	r     *http.Request
	code  int
	data  any
	tmpls []string
	url   *url.URL
	user  any
}

// Authed prepends all templates with the base authenticated template and adds resp.user from the session.
//
// If no user can be retrieved from the session, it is assumed a user is not logged in and returns ErrNoUser.
//
// If WithAuthTemplate was not called setting up the Responder, ErrBadConfig returns.
func Authed() Fn {
	return func(d Responder, r *Response) error {
		if d.templates.authed == "" {
			return fmt.Errorf("%w: no authed tmpl", ErrBadConfig)
		}

		if err := populateUser(d, r); err != nil {
			return err
		}

		switch {
		case len(r.tmpls) > 0 && r.tmpls[0] == d.templates.authed:
		case len(r.tmpls) > 0 && r.tmpls[0] == d.templates.unauthed:
			r.tmpls[0] = d.templates.authed
		default:
			r.tmpls = append([]string{d.templates.authed}, r.tmpls...)
		}

		r.tmpls = appendScripts(r.tmpls, d.templates.additionalScripts)
		return nil
	}
}

// Code sets the response status code.
func Code(c int) Fn {
	return func(_ Responder, r *Response) error {
		r.code = c
		return nil
	}
}

// Data stores the provided value for writing to the client.
//
// Used with Responder.Html and Responder.Json.
func Data(d any) Fn {
	return func(_ Responder, r *Response) error {
		r.data = d
		return nil
	}
}

// Err sets the status code http.StatusInternalServerError and logs the error.
func Err(e error) Fn {
	return func(d Responder, r *Response) error {
		if e != nil {
			var data map[string]any
			if r.data != nil {
				data = map[string]any{"data": r.data}
			}

			u, _ := r.user.(logger.LogUser)
			d.logger.Error(e.Error(), newLogContext(r.r, e, data, u))
		}

		return Code(http.StatusInternalServerError)(d, r)
	}
}

// Flash sets a flash message in the session with the passed in class and msg.
func Flash(flash session.Flash) Fn {
	return func(d Responder, r *Response) error {
		s, err := d.Session(r.r.Context())
		if err != nil {
			return err
		}

		return s.SetFlash(r.w, r.r, flash)
	}
}

// GenericErr combines Err() and Flash() to log the passed in error
// and set a generic error flash in the session
// using either the string set by WithContactErrMsg or session.DefaultErrMsg.
func GenericErr(e error) Fn {
	return func(d Responder, r *Response) error {
		if err := Err(e)(d, r); err != nil {
			return err
		}

		msg := session.DefaultErrMsg
		if d.contactErrMsg != "" {
			msg = d.contactErrMsg
		}

		return Flash(session.Flash{Class: session.FlashError, Msg: msg})(d, r)
	}
}

// Param adds the single query parameter to the response's URL.
//
// Used with Responder.Redirect.
func Param(key, val string) Fn {
	return Params(map[string]string{key: val})
}

// Params adds the query parameters to the response's URL,
// merging them with any already present.
//
// Used with Responder.Redirect.
func Params(params map[string]string) Fn {
	return func(_ Responder, r *Response) error {
		if r.url == nil {
			return fmt.Errorf("%w: Url() has not been called", ErrMissingData)
		}

		q := r.url.Query()
		for k, v := range params {
			q.Add(k, v)
		}

		r.url.RawQuery = q.Encode()
		return nil
	}
}

// Success sets the status code to http.StatusOK
// and sets a session.FlashSuccess flash in the session with the passed in msg.
//
// Used with Responder.Html.
func Success(msg string) Fn {
	return func(d Responder, r *Response) error {
		if err := Code(http.StatusOK)(d, r); err != nil {
			return err
		}

		return Flash(session.Flash{Class: session.FlashSuccess, Msg: msg})(d, r)
	}
}

// Tmpls appends to the templates to be rendered.
//
// Used with Responder.Html.
func Tmpls(fps ...string) Fn {
	return func(_ Responder, r *Response) error {
		r.tmpls = append(r.tmpls, fps...)
		return nil
	}
}

// ToRoot sets the response's URL to the Responder's root URL.
//
// If WithRootURL was not called setting up the Responder, ErrMissingData returns.
func ToRoot() Fn {
	return func(d Responder, r *Response) error {
		if d.rootURL == nil {
			return fmt.Errorf("%w: no root URL configured", ErrMissingData)
		}

		u := *d.rootURL
		r.url = &u
		return nil
	}
}

// Unauthed prepends all templates with the base unauthenticated template.
// If the first template is the base authenticated template, this overwrites it.
//
// If WithUnauthTemplate was not called setting up the Responder, ErrBadConfig returns.
func Unauthed() Fn {
	return func(d Responder, r *Response) error {
		if d.templates.unauthed == "" {
			return fmt.Errorf("%w: no unauthed tmpl", ErrBadConfig)
		}

		switch {
		case len(r.tmpls) > 0 && r.tmpls[0] == d.templates.unauthed:
		case len(r.tmpls) > 0 && r.tmpls[0] == d.templates.authed:
			r.tmpls[0] = d.templates.unauthed
		default:
			r.tmpls = append([]string{d.templates.unauthed}, r.tmpls...)
		}

		r.tmpls = appendScripts(r.tmpls, d.templates.additionalScripts)
		return nil
	}
}

// User stores the user in the *Response.
//
// Used with Responder.Html and Responder.Json.
// When used with Json, the user is assigned to the "currentUser" key.
func User(u any) Fn {
	return func(_ Responder, r *Response) error {
		r.user = u
		return nil
	}
}

// Url parses the raw URL string and sets it in the *Response if successful.
//
// Used with Responder.Redirect.
func Url(u string) Fn {
	return func(_ Responder, r *Response) error {
		parsed, err := url.ParseRequestURI(u)
		if err != nil {
			return fmt.Errorf("%w: u is not a valid URL: %v", ErrInvalid, err)
		}

		r.url = parsed
		return nil
	}
}

// Vue sets a *Response up for rendering a Vue app.
// Vue appends the base Vue template to existing tmpls.
// It adds the required entrypoint to the data to be rendered.
//
// Vue structures the provided data alongside default values according to a default schema.
//
// Here's the schema:
//
//	{
//		"entry": entry,
//		"props": {
//			"initialProps": {
//				"baseURL": d.rootURL,
//				"currentUser": r.user,
//			},
//			...key-value pairs set by Data
//			...key-value pairs set by d.ctxKeys
//		},
//		...key-value pairs set by Data
//	}
//
// Calls to Data are merged into the required schema in the following way.
//
// At its simplest, for example, Data(map[string]any{"myProp": "Hello, World"}),
// will produce:
//
//	{
//		"entry": entry,
//		"props": {
//			"myProp": "Hello, World",
//			"initialProps": {
//				"baseURL": d.rootURL,
//				"currentUser": r.user,
//			}
//		}
//	}
//
// If the type passed into Data is not map[string]any, like, Data(myStruct{}),
// the value is placed under another "props" key, producing:
//
//	{
//		"entry": entry,
//		"props": {
//			"props": myStruct{},
//			"initialProps": {
//				"baseURL": d.rootURL,
//				"currentUser": r.user,
//			},
//		}
//	}
//
// Finally, if values need to be present to template rendering under a specific key,
// and properties need to be passed in as well,
// include a map[string]any under the "props" key
// and the two maps will be merged.
//
// It is not required to set any keys for pulling additional values
// out of the *http.Request.Context.
// Use WithCtxKeys to do so when applicable.
func Vue(entry string) Fn {
	return func(d Responder, r *Response) error {
		if d.templates.vue == "" || entry == "" {
			return nil
		}

		if err := Tmpls(d.templates.vue)(d, r); err != nil {
			return err
		}

		r.tmpls = appendScripts(r.tmpls, d.templates.vueScripts)

		// NOTE(tmk): ignore error since Vue does not require a User
		populateUser(d, r)

		data := map[string]any{"entry": entry}
		init := map[string]any{"currentUser": r.user}
		if d.rootURL != nil {
			init["baseURL"] = d.rootURL.String()
		}

		props := map[string]any{"initialProps": init}
		for _, k := range d.ctxKeys {
			if val := r.r.Context().Value(k); val != nil {
				props[k.Key()] = val
			}
		}

		switch t := r.data.(type) {
		case nil:
		case map[string]any:
			if _, ok := t["props"]; ok {
				// NOTE(tmk): "props" key is set, r.data needs to be merged into
				// both the props map and data map.
				// Perform those checks here and apply key-value pairs accordingly.
				for k, v := range t {
					if k == "props" {
						if ip, ok := v.(map[string]any); ok {
							for k, v := range ip {
								props[k] = v
							}
						}
					} else {
						data[k] = v
					}
				}
			} else {
				// NOTE(tmk): no "props" key was set, apply all to props map.
				for k, v := range t {
					props[k] = v
				}
			}
		default:
			// NOTE(tmk): unhandled case, applying everything to props map under "props" key.
			props["props"] = r.data
		}

		data["props"] = props

		return Data(data)(d, r)
	}
}

// Warn sets a flash warning in the session and logs the warning.
func Warn(msg string) Fn {
	return func(d Responder, r *Response) error {
		var data map[string]any
		if r.data != nil {
			data = map[string]any{"data": r.data}
		}

		d.logger.Warn(msg, newLogContext(r.r, nil, data, nil))

		return Flash(session.Flash{Class: session.FlashWarning, Msg: msg})(d, r)
	}
}

// appendScripts adds fp to the end of tmpls unless it is already included.
func appendScripts(tmpls []string, fp string) []string {
	if fp == "" {
		return tmpls
	}

	for _, t := range tmpls {
		if t == fp {
			return tmpls
		}
	}

	return append(tmpls, fp)
}
