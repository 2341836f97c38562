package index

import "errors"

var ErrUnknownChannel = errors.New("unknown channel")
