package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cairnhq/cairn/http/middleware"
	"github.com/stretchr/testify/require"
)

func TestCatchPanic(t *testing.T) {
	// Arrange + Act
	actual := middleware.CatchPanic(nil, nil)

	// Assert
	require.Equal(t, fmt.Sprintf("%p", middleware.NoopAdapter), fmt.Sprintf("%p", actual))

	// Arrange
	tl := newTestLogger()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	actual = middleware.CatchPanic(tl, newResponder(t))

	// Act
	actual(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTeapot, w.Code)
	require.Zero(t, tl.b.String())

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("Accept", "application/json")

	boom := http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
		panic("boom")
	})

	// Act
	actual(boom).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":{"code":500,"message":"Internal Server Error"}}`, w.Body.String())
	require.Equal(t, "panicked serving request: boom", tl.b.String())

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	abort := http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
		panic(http.ErrAbortHandler)
	})

	// Act + Assert
	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		actual(abort).ServeHTTP(w, r)
	})
}
