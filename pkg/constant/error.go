package constant

import (
	"github.com/pkg/errors"
)

var (
	ErrUnsupportedMode = errors.New("unsupported runtime mode")
)
