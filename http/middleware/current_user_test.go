package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/cairnhq/cairn/http/middleware"
	"github.com/cairnhq/cairn/http/session"
	"github.com/stretchr/testify/require"
)

func TestCurrentUser(t *testing.T) {
	// Arrange + Act
	actual := middleware.CurrentUser(nil, nil, nil, nil)

	// Assert
	require.Equal(t, fmt.Sprintf("%p", middleware.NoopAdapter), fmt.Sprintf("%p", actual))

	// Arrange + Act
	actual = middleware.CurrentUser(newResponder(t), nil, nil, nil)

	// Assert
	require.Equal(t, fmt.Sprintf("%p", middleware.NoopAdapter), fmt.Sprintf("%p", actual))

	// Arrange + Act
	actual = middleware.CurrentUser(newResponder(t), newTestUserStore(true), nil, nil)

	// Assert
	require.Equal(t, fmt.Sprintf("%p", middleware.NoopAdapter), fmt.Sprintf("%p", actual))

	// Arrange
	sessKey := ctxKey("session")
	userKey := ctxKey("user")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("Accept", "application/json")

	// Act
	middleware.CurrentUser(
		newResponder(t),
		newTestUserStore(true),
		sessKey,
		userKey,
	)(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":{"code":401,"message":"Unauthorized"}}`, w.Body.String())

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	ss, err := session.NewStubStorer(false).GetSession(r)
	require.Nil(t, err)

	r = r.Clone(context.WithValue(r.Context(), sessKey, ss))

	// Act
	actual = middleware.CurrentUser(
		newResponder(t),
		newTestUserStore(true),
		sessKey,
		userKey,
	)

	// Assert
	actual(http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
		val, ok := rx.Context().Value(userKey).(testUser)
		require.False(t, ok)
		require.False(t, bool(val))
	})).ServeHTTP(w, r)

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	ss, err = session.NewStubStorer(true).GetSession(r)
	require.Nil(t, err)

	r = r.Clone(context.WithValue(r.Context(), sessKey, ss))
	r.Header.Set("Accept", "application/json")

	// Act
	middleware.CurrentUser(
		newResponder(t),
		newFailedUserStore(),
		sessKey,
		userKey,
	)(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	ss, err = session.NewStubStorer(true).GetSession(r)
	require.Nil(t, err)

	r = r.Clone(context.WithValue(r.Context(), sessKey, ss))
	r.Header.Set("Accept", "application/json")

	// Act
	middleware.CurrentUser(
		newResponder(t),
		newTestUserStore(false),
		sessKey,
		userKey,
	)(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	ss, err = session.NewStubStorer(true).GetSession(r)
	require.Nil(t, err)

	r = r.Clone(context.WithValue(r.Context(), sessKey, ss))

	// Act
	actual = middleware.CurrentUser(
		newResponder(t),
		newTestUserStore(true),
		sessKey,
		userKey,
	)

	// Assert
	actual(http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
		val, ok := rx.Context().Value(userKey).(testUser)
		require.True(t, ok)
		require.True(t, bool(val))
	})).ServeHTTP(w, r)

	require.Equal(t, "no-store", w.Header().Get("Cache-control"))
	require.Equal(t, "no-cache", w.Header().Get("Pragma"))
}

func TestRequireUnauthed(t *testing.T) {
	// Arrange + Act
	actual := middleware.RequireUnauthed(nil, nil)

	// Assert
	require.Equal(t, fmt.Sprintf("%p", middleware.NoopAdapter), fmt.Sprintf("%p", actual))

	// Arrange
	ck := ctxKey("user")
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	actual = middleware.RequireUnauthed(newResponder(t), ck)

	// Act
	actual(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTeapot, w.Code)

	// Arrange
	cu := testUser(true)
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("Accept", "text/html")
	r = r.Clone(context.WithValue(r.Context(), ck, cu))

	// Act
	actual(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	require.Equal(t, cu.HomePath(), w.Header().Get("Location"))

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("Accept", "application/json")
	r = r.Clone(context.WithValue(r.Context(), ck, cu))

	// Act
	actual(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":{"code":400,"message":"Bad Request"}}`, w.Body.String())
}

func TestRequireAuthed(t *testing.T) {
	// Arrange + Act
	actual := middleware.RequireAuthed(nil, nil, "", "")

	// Assert
	require.Equal(t, fmt.Sprintf("%p", middleware.NoopAdapter), fmt.Sprintf("%p", actual))

	// Arrange
	ck := ctxKey("user")
	login := "/login"
	logoff := "/logoff"
	u := "https://example.com"
	q := url.QueryEscape(u)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, u, nil)
	r.Header.Set("Accept", "text/html")

	actual = middleware.RequireAuthed(newResponder(t), ck, login, logoff)

	// Act
	actual(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	require.Equal(t, login+"?next="+q, w.Header().Get("Location"))

	// Arrange
	o := url.QueryEscape("https://example.com/return_to")
	u += "?return_to=" + o
	q = url.QueryEscape(u)
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, u, nil)
	r.Header.Set("Accept", "text/html")

	// Act
	actual(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	require.Equal(t, login+"?next="+q, w.Header().Get("Location"))

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "https://example.com", nil)
	r.Header.Set("Accept", "text/html")

	// Act
	actual(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	require.Equal(t, login, w.Header().Get("Location"))

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com"+logoff, nil)
	r.Header.Set("Accept", "text/html")

	// Act
	actual(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	require.Equal(t, login, w.Header().Get("Location"))

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	// Act
	actual(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Error 401: Unauthorized", w.Body.String())

	// Arrange
	cu := testUser(true)
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r = r.Clone(context.WithValue(r.Context(), ck, cu))

	// Act
	actual(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTeapot, w.Code)
}
