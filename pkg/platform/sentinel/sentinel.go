package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Entity stores, queue channels and
// blob stores return these (optionally wrapped) so services can translate them
// into domain errors.
//
//   - ErrNotFound: entity, message or blob does not exist
//   - ErrConflict: version token mismatch or duplicate key on create
//   - ErrExpired: a message lease elapsed before it was acknowledged
//   - ErrAlreadyExists: create-only blob key is already taken
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrExpired       = errors.New("expired")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnavailable   = errors.New("unavailable")
)
