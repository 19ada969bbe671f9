package web

import "errors"

var (
	ErrPanic     = errors.New("recovered from panic")
	ErrNoService = errors.New("no service to serve")
)
