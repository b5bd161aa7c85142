package persistence

import "errors"

var (
	ErrUnsupportedStore = errors.New("unsupported store")
)
