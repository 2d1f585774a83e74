package model

import "errors"

// ErrInvalidRecord marks a reference to a record or data source that does not exist.
var ErrInvalidRecord = errors.New("invalid record")
