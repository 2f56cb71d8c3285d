package jobs

import "errors"

var (
	ErrInvalidJobType      = errors.New("invalid job type")
	ErrInvalidJobPayload   = errors.New("invalid job payload")
	ErrPayloadTypeMismatch = errors.New("payload type mismatch for job type")

	// ErrPermanent wraps handler failures that retrying cannot fix.
	ErrPermanent = errors.New("permanent job failure")
)
