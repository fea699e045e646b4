package types

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKeyIndex is returned when a key index is outside the pool or
	// was never granted by a fresh allocation
	ErrUnknownKeyIndex = errors.New("unknown api key index")
	// ErrNoFreeKey is returned when every key slot is in use
	ErrNoFreeKey = errors.New("no free api key slot")

	ErrNonceOrderViolation = errors.New("nonce order violation")
	ErrBatchTooLarge       = errors.New("batch too large")
	ErrEmptyBatch          = errors.New("batch is empty")
	ErrMixedKeyIndex       = errors.New("batch mixes api key indexes")

	ErrSigning  = errors.New("signing error")
	ErrNotReady = errors.New("client not ready")

	ErrTransportFailure = errors.New("transport failure")
	ErrRejected         = errors.New("transaction rejected")
)

// Delivery describes what is known about a transaction that hit a transport
// failure.
type Delivery int

const (
	// DeliveryUnknown means the transaction may have reached the exchange.
	// It must be reconciled before anything is resubmitted.
	DeliveryUnknown Delivery = iota
	// DeliveryNotSent means the transaction never left the client
	DeliveryNotSent
)

func (d Delivery) String() string {
	switch d {
	case DeliveryUnknown:
		return "unknown"
	case DeliveryNotSent:
		return "not_sent"
	default:
		return fmt.Sprintf("Delivery(%d)", int(d))
	}
}

type TransportError struct {
	Delivery Delivery
	Reason   string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport failure (%s): %s: %v", e.Delivery, e.Reason, e.Err)
	}
	return fmt.Sprintf("transport failure (%s): %s", e.Delivery, e.Reason)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

type RejectedError struct {
	Code   int64
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transaction rejected (code %d): %s", e.Code, e.Reason)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// NotSent builds a transport failure for a transaction that never left the
// client.
func NotSent(reason string, err error) *TransportError {
	return &TransportError{Delivery: DeliveryNotSent, Reason: reason, Err: err}
}

// Unknown builds a transport failure for a transaction whose receipt by the
// exchange cannot be confirmed.
func Unknown(reason string, err error) *TransportError {
	return &TransportError{Delivery: DeliveryUnknown, Reason: reason, Err: err}
}

// SafeToRetry reports whether err proves the exchange did not apply the
// transaction, so it can be signed again under a fresh nonce.
func SafeToRetry(err error) bool {
	if errors.Is(err, ErrRejected) {
		return true
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Delivery == DeliveryNotSent
	}
	return false
}

// NeedsReconciliation reports whether err leaves the transaction in an
// ambiguous state.
func NeedsReconciliation(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Delivery == DeliveryUnknown
	}
	return false
}
