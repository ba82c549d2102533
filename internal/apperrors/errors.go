package apperrors

import "errors"

// ErrUnauthorized indicates a missing or invalid session identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFound indicates that a requested resource could not be found or does not belong to the caller.
var ErrNotFound = errors.New("resource not found")

// ErrBadRequest indicates malformed or out-of-range input.
var ErrBadRequest = errors.New("bad request")

// ErrAlreadyPaid indicates the targeted invoice, phase or video was already settled.
// It unwraps to ErrBadRequest.
var ErrAlreadyPaid = &alreadyPaidError{}

// ErrInternal indicates a store, storage or provider failure.
var ErrInternal = errors.New("internal error")

type alreadyPaidError struct{}

func (*alreadyPaidError) Error() string { return "already paid" }
func (*alreadyPaidError) Unwrap() error { return ErrBadRequest }
