package domain

import "errors"

// Sentinel errors shared by the stores, the sender and the HTTP layer.
// Stores wrap driver failures with ErrPersistence; the sender wraps relay
// failures with ErrDelivery.
var (
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failed")
	ErrDelivery    = errors.New("delivery failed")
)
