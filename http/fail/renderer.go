package fail

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// errorTitle heads every rendered error body.
const errorTitle = "An unexpected error occurred"

// A Report carries the resolved details of a failed request to a Renderer.
type Report struct {
	// Code is the HTTP status code the response renders with.
	Code int

	// Message is the client-safe description of the failure.
	Message string

	// Trace is the failure's stack, one frame per entry, newest first.
	//
	// Trace is nil unless the Responder exposes failure details.
	Trace []string
}

// A Renderer produces a complete error body for the media types it recognizes.
//
// Renderers registered on a [Responder] form an ordered list;
// the first whose Matches accepts the candidate media type renders the response.
type Renderer interface {
	// Matches reports whether the Renderer produces bodies for mime,
	// e.g., "text/html" or "text/html; charset=utf-8".
	Matches(mime string) bool

	// Render produces the response body for the Report
	// and names the Content-Type the body renders as.
	Render(rep Report) (body []byte, contentType string)
}

// htmlRenderer substitutes a Report into a cached page template.
type htmlRenderer struct {
	tmpl string
}

func (re htmlRenderer) Matches(mime string) bool { return strings.HasPrefix(mime, "text/html") }

// Render fills the template's literal placeholders:
// {title}, {errorCode}, {errorMessage} and {stackTrace},
// the last as one <li> per stack frame.
func (re htmlRenderer) Render(rep Report) ([]byte, string) {
	var stack strings.Builder
	for _, frame := range rep.Trace {
		stack.WriteString("<li>")
		stack.WriteString(frame)
		stack.WriteString("</li>")
	}

	body := strings.NewReplacer(
		"{title}", errorTitle,
		"{errorCode}", strconv.Itoa(rep.Code),
		"{errorMessage}", rep.Message,
		"{stackTrace}", stack.String(),
	).Replace(re.tmpl)

	return []byte(body), "text/html"
}

// jsonRenderer shapes a Report as a JSON document.
type jsonRenderer struct{}

type jsonBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Stack []string `json:"stack,omitempty"`
}

func (re jsonRenderer) Matches(mime string) bool { return strings.HasPrefix(mime, "application/json") }

func (re jsonRenderer) Render(rep Report) ([]byte, string) {
	var body jsonBody
	body.Error.Code = rep.Code
	body.Error.Message = rep.Message
	body.Stack = rep.Trace

	b, err := json.Marshal(body)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"error":{"code":%d,"message":%q}}`, rep.Code, rep.Message))
	}

	return b, "application/json"
}

// textRenderer writes a Report as bare text,
// serving as the last resort for any failed request.
type textRenderer struct{}

func (re textRenderer) Matches(mime string) bool { return strings.HasPrefix(mime, "text/plain") }

func (re textRenderer) Render(rep Report) ([]byte, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Error %d: %s", rep.Code, rep.Message)
	for _, frame := range rep.Trace {
		b.WriteString("\tat ")
		b.WriteString(frame)
		b.WriteString("\n")
	}

	return []byte(b.String()), "text/plain"
}
