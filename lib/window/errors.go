package window

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidPolicy    = errors.New("invalid window policy")
	ErrPunctPolicy      = errors.New("punctuation policy is not supported by sliding windows")
	ErrExtractor        = errors.New("attribute extraction failed")
	ErrCheckpointMarker = errors.New("unexpected window checkpoint")
	ErrUnsupported      = errors.New("operation is not supported by this window")
	ErrBackgroundFault  = errors.New("window background task failed")
)
