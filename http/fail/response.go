package fail

import "net/http"

// A Response decorates an [http.ResponseWriter],
// recording the status code written and whether the header flushed to the client.
//
// Handlers and middlewares relying on a [Responder] wrap their
// ResponseWriter in a Response before writing through it;
// [Responder.Handle] reads the recorded state back to decide
// whether the response can still be shaped.
type Response struct {
	http.ResponseWriter

	status      int
	statusText  string
	wroteHeader bool
}

// NewResponse wraps w, returning w itself if it is already a *Response.
func NewResponse(w http.ResponseWriter) *Response {
	if resp, ok := w.(*Response); ok {
		return resp
	}

	return &Response{ResponseWriter: w}
}

// WriteHeader sends the HTTP response header with the provided status code,
// recording it. Calls after the first are no-ops.
func (w *Response) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}

	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

// Write writes b to the connection,
// flushing a 200 OK header first if none was written.
func (w *Response) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	return w.ResponseWriter.Write(b)
}

// Status returns the status code written to the client,
// or 0 when the header has not been written yet.
func (w *Response) Status() int { return w.status }

// HeaderWritten reports whether the response header flushed to the client.
func (w *Response) HeaderWritten() bool { return w.wroteHeader }

// StatusText returns the message accompanying the response's status code.
//
// net/http never transmits a custom message on the status line,
// so this is bookkeeping for logs and tests.
func (w *Response) StatusText() string {
	if w.statusText != "" {
		return w.statusText
	}

	return statusText(w.status)
}

func (w *Response) setStatusText(text string) { w.statusText = text }

// Flush sends buffered data to the client if the wrapped writer supports it.
func (w *Response) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the decorated writer to [http.ResponseController].
func (w *Response) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// headerWritten is satisfied by writers that track their own header state,
// such as *Response.
type headerWritten interface {
	HeaderWritten() bool
}

// headerFlushed walks w's Unwrap chain looking for a writer that knows
// whether the response header went out.
// Writers without that knowledge report false.
func headerFlushed(w http.ResponseWriter) bool {
	for {
		if hw, ok := w.(headerWritten); ok {
			return hw.HeaderWritten()
		}

		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return false
		}

		w = u.Unwrap()
	}
}
