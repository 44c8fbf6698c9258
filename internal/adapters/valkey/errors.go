package valkey

import "errors"

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")
