package fail

import "errors"

var (
	// ErrMissingTemplate reports that the page template a [Responder]
	// was configured with cannot be read.
	ErrMissingTemplate = errors.New("missing template")
)
