package loader

import "errors"

// ErrUnsupportedFormat is returned for configuration files of an unknown
// format.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// ErrIncludeDepthExceeded indicates too many nested @include directives.
var ErrIncludeDepthExceeded = errors.New("include depth exceeded")
