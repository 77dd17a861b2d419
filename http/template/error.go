package template

import "errors"

var (
	// ErrMatchedAssets reports that an asset glob matched more than one bundled file.
	ErrMatchedAssets = errors.New("multiple assets matched")

	// ErrNoFiles reports that no filepaths were given to Parser.Parse.
	ErrNoFiles = errors.New("no files provided")
)
