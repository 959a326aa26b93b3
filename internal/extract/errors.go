package extract

import "errors"

var (
	// ErrUnsupported indicates no extractor is registered for a file type.
	ErrUnsupported = errors.New("unsupported file type")
)
