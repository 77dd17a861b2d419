package middleware_test

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/http/middleware"
	"github.com/cairnhq/cairn/logger"
	"github.com/stretchr/testify/require"
)

type ctxKey string

func (k ctxKey) Key() string    { return string(k) }
func (k ctxKey) String() string { return "test context key: " + string(k) }

func noopHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
}

func teapotHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

// testUser toggles access checks with its underlying bool.
type testUser bool

func (u testUser) HasAccess() bool  { return bool(u) }
func (u testUser) HomePath() string { return "/home" }

func newTestUserStore(hasAccess bool) middleware.UserStorer {
	return func(id uint) (middleware.User, error) { return testUser(hasAccess), nil }
}

func newFailedUserStore() middleware.UserStorer {
	return func(id uint) (middleware.User, error) { return nil, errors.New("user gone") }
}

func newResponder(t *testing.T) *fail.Responder {
	t.Helper()

	d, err := fail.NewResponder()
	require.Nil(t, err)

	return d
}

// A testLogger captures log lines in a buffer so tests can assert on them.
type testLogger struct {
	b *bytes.Buffer
}

func newTestLogger() testLogger { return testLogger{b: bytes.NewBuffer(nil)} }

func (tl testLogger) print(msg string, ctx *logger.LogContext) {
	if ctx != nil && ctx.Error != nil {
		msg = fmt.Sprintf("%s: %s", msg, ctx.Error)
	}

	tl.b.WriteString(msg)
}

func (tl testLogger) Debug(msg string, ctx *logger.LogContext) { tl.print(msg, ctx) }
func (tl testLogger) Error(msg string, ctx *logger.LogContext) { tl.print(msg, ctx) }
func (tl testLogger) Fatal(msg string, ctx *logger.LogContext) { tl.print(msg, ctx) }
func (tl testLogger) Info(msg string, ctx *logger.LogContext)  { tl.print(msg, ctx) }
func (tl testLogger) Warn(msg string, ctx *logger.LogContext)  { tl.print(msg, ctx) }

func (tl testLogger) LogLevel() logger.LogLevel { return logger.LogLevelDebug }

func TestChain(t *testing.T) {
	// Arrange
	var calls []string
	tag := func(name string) middleware.Adapter {
		return func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				h.ServeHTTP(w, r)
			})
		}
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	// Act
	middleware.Chain(teapotHandler(), tag("first"), tag("second")).ServeHTTP(w, r)

	// Assert
	require.Equal(t, []string{"first", "second"}, calls)
	require.Equal(t, http.StatusTeapot, w.Code)
}
