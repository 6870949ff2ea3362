package directory

import "errors"

var ErrUnknownResource = errors.New("unknown resource kind")
