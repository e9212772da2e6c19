package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrNotReady          = errors.New("job not completed")
	ErrJobExpired        = errors.New("job result expired")
	ErrAdmissionRejected = errors.New("backend at capacity")
	ErrUnknownBackend    = errors.New("unknown backend")
)
