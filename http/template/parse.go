package template

import (
	"fmt"
	html "html/template"
	"io/fs"
	"os"
	"path"
)

// A Parser parses HTML templates out of a stack of filesystems,
// making the functions added to it available within those templates.
type Parser struct {
	fs  fs.FS
	fns html.FuncMap
}

// NewParser constructs a *Parser reading templates from the provided filesystems.
//
// Filesystems are consulted in the order given,
// so a template in an earlier fs.FS shadows one by the same name in a later fs.FS.
// With no filesystems, NewParser reads from the process's working directory.
func NewParser(fsys []fs.FS) *Parser {
	layers := make([]fs.FS, 0, len(fsys))
	for _, f := range fsys {
		if f == nil {
			continue
		}

		layers = append(layers, f)
	}

	if len(layers) == 0 {
		layers = append(layers, os.DirFS("."))
	}

	return &Parser{fs: newMergeFS(layers...), fns: make(html.FuncMap)}
}

// Parse parses the named files into a single *html/template.Template
// alongside the functions previously added to the *Parser.
//
// The template takes its name from the base of the first file.
func (p *Parser) Parse(fps ...string) (*html.Template, error) {
	var files []string
	for _, fp := range fps {
		if fp == "" {
			continue
		}

		files = append(files, fp)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w", ErrNoFiles)
	}

	return html.New(path.Base(files[0])).Funcs(p.fns).ParseFS(p.fs, files...)
}
