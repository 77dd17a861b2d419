package template

import (
	"errors"
	"fmt"
	html "html/template"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cairnhq/cairn"
	"github.com/cairnhq/cairn/logger"
)

const (
	assetsBase = "client/dist"
	cssGlob    = "client/dist/css/%s.*.css"
	jsGlob     = "client/dist/js/%s.*.js"
)

// AssetURI encloses the origin, environment and filesystem so when called executing a template,
// emits a valid URI for client side static and bundled assets.
//
// With a nil origin, URIs are relative to the web app serving them.
// Otherwise, URIs point at the origin, such as a CDN fronting the bundled assets.
func AssetURI(origin *url.URL, env cairn.Environment, filesys fs.FS, l logger.Logger) func(string) string {
	env = cairn.Environment(strings.ToUpper(env.String()))
	if filesys == nil {
		filesys = os.DirFS(".")
	}

	prefix := "/"
	if origin != nil {
		prefix = origin.String() + "/"
	}

	return func(assetPath string) string {
		if env.IsTesting() {
			return ""
		}

		uri := prefix + assetsBase + "/" + assetPath
		if env.IsDevelopment() {
			return uri
		}

		// match hashed files bundled by Vite;
		// where assetPath = assets/GetDashboard.js,
		// glob = client/dist/assets/GetDashboard-*.js
		fileExt := filepath.Ext(assetPath)
		filename := strings.TrimSuffix(assetPath, fileExt)
		glob := fmt.Sprintf("%s/%s-*%s", assetsBase, filename, fileExt)

		matches, err := fs.Glob(filesys, glob)
		switch {
		case errors.Is(err, path.ErrBadPattern):
			if l != nil {
				l.Error(fmt.Sprintf("globbing %q: %s", glob, err), nil)
			}

			return uri

		case len(matches) == 0:
			return uri

		case len(matches) > 1:
			if l != nil {
				l.Error(fmt.Sprintf("%s: %q matched %d files", ErrMatchedAssets, glob, len(matches)), nil)
			}
		}

		return prefix + matches[0]
	}
}

// TagPacker encloses the environment and filesystem so when called executing a template,
// emits script and link tags referencing bundled JS and CSS assets.
//
// TODO(tmk): accept an origin override like AssetURI does so the dev server host is not hardcoded.
func TagPacker(env cairn.Environment, filesys fs.FS) func(string, bool) html.HTML {
	env = cairn.Environment(strings.ToUpper(env.String()))
	if filesys == nil {
		filesys = os.DirFS(".")
	}

	return func(name string, isCSS bool) html.HTML {
		assetPath := fmt.Sprintf("http://localhost:8080/js/%s.js", name)
		tagTemplate := `<script src="%s" type="text/javascript"></script>`
		glob := fmt.Sprintf(jsGlob, name)

		if isCSS {
			assetPath = fmt.Sprintf("http://localhost:8080/css/%s.css", name)
			tagTemplate = `<link rel="stylesheet" href="%s">`
			glob = fmt.Sprintf(cssGlob, name)
		}

		switch {
		case env.IsTesting():
			return ""

		case env.IsDevelopment():
			return html.HTML(fmt.Sprintf(tagTemplate, assetPath))

		default:
			matches, err := fs.Glob(filesys, glob)
			if errors.Is(err, path.ErrBadPattern) {
				return html.HTML(fmt.Sprintf(tagTemplate, "error-bad-glob"))
			}

			if len(matches) == 0 {
				return html.HTML(fmt.Sprintf(tagTemplate, "error-not-found"))
			}

			return html.HTML(fmt.Sprintf(tagTemplate, "/"+matches[0]))
		}
	}
}
