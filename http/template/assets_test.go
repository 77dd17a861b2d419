package template_test

import (
	"bytes"
	"fmt"
	html "html/template"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairnhq/cairn"
	"github.com/cairnhq/cairn/http/template"
	tt "github.com/cairnhq/cairn/http/template/templatetest"
	"github.com/cairnhq/cairn/logger"
)

const (
	assetURI = "%sclient/dist/%s"
	origin   = "https://cdn.cairnhq.com"

	cssAsset = "http://localhost:8080/css/%s.css"
	jsAsset  = "http://localhost:8080/js/%s.js"
	cssTag   = `<link rel="stylesheet" href="%s">`
	jsTag    = `<script src="%s" type="text/javascript"></script>`
)

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

func TestAssetURI(t *testing.T) {
	originURL, err := url.ParseRequestURI(origin)
	require.Nil(t, err)

	// Arrange
	tcs := []struct {
		name     string
		filepath string
		fn       func(string) string
		expected string
	}{
		{"env-testing", "", template.AssetURI(nil, cairn.Testing, nil, nil), ""},
		{
			"zero-name",
			"",
			template.AssetURI(nil, cairn.Development, nil, nil),
			fmt.Sprintf(assetURI, "/", ""),
		},
		{
			"no-hash-match-no-origin",
			"assets/test.js",
			template.AssetURI(nil, cairn.Production, nil, nil),
			fmt.Sprintf(assetURI, "/", "assets/test.js"),
		},
		{
			"hash-match-no-origin",
			"assets/test.js",
			template.AssetURI(nil, cairn.Production, tt.NewMockFS(tt.NewMockFile("client/dist/assets/test-af8s7f9.js", nil)), nil),
			fmt.Sprintf(assetURI, "/", "assets/test-af8s7f9.js"),
		},
		{
			"hash-match-origin",
			"assets/test.js",
			template.AssetURI(originURL, cairn.Production, tt.NewMockFS(tt.NewMockFile("client/dist/assets/test-af8s7f9.js", nil)), nil),
			fmt.Sprintf(assetURI, origin+"/", "assets/test-af8s7f9.js"),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			actual := tc.fn(tc.filepath)

			// Assert
			require.Equal(t, tc.expected, actual)
		})
	}
}

func TestAssetURIMultipleMatches(t *testing.T) {
	// Arrange
	tl := newTestLogger()
	fsys := tt.NewMockFS(
		tt.NewMockFile("client/dist/assets/test-aaa111.js", nil),
		tt.NewMockFile("client/dist/assets/test-bbb222.js", nil),
	)
	fn := template.AssetURI(nil, cairn.Production, fsys, tl)

	// Act
	actual := fn("assets/test.js")

	// Assert
	require.Equal(t, fmt.Sprintf(assetURI, "/", "assets/test-aaa111.js"), actual)
	require.Contains(t, tl.b.String(), template.ErrMatchedAssets.Error())
}

func TestTagPacker(t *testing.T) {
	// Arrange
	tcs := []struct {
		name     string
		filename string
		isCSS    bool
		fn       func(string, bool) html.HTML
		expected html.HTML
	}{
		{"env-testing", "", false, template.TagPacker("testing", nil), html.HTML("")},
		{"env-case-matching", "", false, template.TagPacker("TeStiNG", nil), html.HTML("")},
		{
			"env-dev-zero-name-js",
			"",
			false,
			template.TagPacker("development", nil),
			html.HTML(fmt.Sprintf(jsTag, fmt.Sprintf(jsAsset, ""))),
		},
		{
			"env-dev-js",
			"test",
			false,
			template.TagPacker("development", nil),
			html.HTML(fmt.Sprintf(jsTag, fmt.Sprintf(jsAsset, "test"))),
		},
		{
			"env-dev-css",
			"test",
			true,
			template.TagPacker("development", nil),
			html.HTML(fmt.Sprintf(cssTag, fmt.Sprintf(cssAsset, "test"))),
		},
		{
			"env-prod-glob-not-found",
			"test",
			false,
			template.TagPacker("production", tt.NewMockFS(tt.NewMockFile("some/other/js/test.js", nil))),
			html.HTML(fmt.Sprintf(jsTag, "error-not-found")),
		},
		{
			"env-prod-bad-glob",
			"te[st",
			false,
			template.TagPacker("production", tt.NewMockFS(tt.NewMockFile("client/dist/js/test.file.js", nil))),
			html.HTML(fmt.Sprintf(jsTag, "error-bad-glob")),
		},
		{
			"env-prod-js",
			"test",
			false,
			template.TagPacker(
				"production",
				tt.NewMockFS(tt.NewMockFile("client/dist/js/test.file.js", nil)),
			),
			html.HTML(fmt.Sprintf(jsTag, "/client/dist/js/test.file.js")),
		},
		{
			"env-prod-css",
			"test",
			true,
			template.TagPacker(
				"production",
				tt.NewMockFS(tt.NewMockFile("client/dist/css/test.file.css", nil)),
			),
			html.HTML(fmt.Sprintf(cssTag, "/client/dist/css/test.file.css")),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			actual := tc.fn(tc.filename, tc.isCSS)

			// Assert
			require.Equal(t, tc.expected, actual)
		})
	}
}
