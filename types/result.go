package types

import "fmt"

type Status int

const (
	// StatusNotSubmitted is the zero value: nothing reached a transport
	StatusNotSubmitted Status = iota
	StatusAccepted
	StatusRejected
	StatusTransportFailure
)

func (s Status) String() string {
	switch s {
	case StatusNotSubmitted:
		return "not_submitted"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusTransportFailure:
		return "transport_failure"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the terminal outcome of submitting one transaction.
type Result struct {
	Status   Status
	TxHash   string
	Code     int64
	Reason   string
	Delivery Delivery // only meaningful for StatusTransportFailure
	err      error
}

func Accepted(txHash string) Result {
	return Result{Status: StatusAccepted, TxHash: txHash}
}

func Rejected(txHash string, code int64, reason string) Result {
	return Result{
		Status: StatusRejected,
		TxHash: txHash,
		Code:   code,
		Reason: reason,
	}
}

// NotSubmitted records a transaction that failed before it was handed to a
// transport. err is the cause.
func NotSubmitted(err error) Result {
	return Result{Status: StatusNotSubmitted, Delivery: DeliveryNotSent, err: err}
}

// Failed converts a transport error into a result for txHash.
func Failed(txHash string, te *TransportError) Result {
	return Result{
		Status:   StatusTransportFailure,
		TxHash:   txHash,
		Reason:   te.Reason,
		Delivery: te.Delivery,
		err:      te.Err,
	}
}

// Err returns nil for accepted results and the matching typed error otherwise.
func (r Result) Err() error {
	switch r.Status {
	case StatusAccepted:
		return nil
	case StatusRejected:
		return &RejectedError{Code: r.Code, Reason: r.Reason}
	case StatusNotSubmitted:
		return NotSent("not submitted", r.err)
	default:
		return &TransportError{Delivery: r.Delivery, Reason: r.Reason, Err: r.err}
	}
}

func (r Result) IsAccepted() bool {
	return r.Status == StatusAccepted
}

func (r Result) String() string {
	switch r.Status {
	case StatusAccepted:
		return fmt.Sprintf("Result{accepted %s}", r.TxHash)
	case StatusRejected:
		return fmt.Sprintf("Result{rejected %s code=%d: %s}", r.TxHash, r.Code, r.Reason)
	case StatusNotSubmitted:
		return fmt.Sprintf("Result{not_submitted: %v}", r.err)
	default:
		return fmt.Sprintf("Result{%s %s (%s): %s}", r.Status, r.TxHash, r.Delivery, r.Reason)
	}
}

// FailAll returns one identical failure result per hash, in order.
func FailAll(hashes []string, te *TransportError) []Result {
	out := make([]Result, len(hashes))
	for i, h := range hashes {
		out[i] = Failed(h, te)
	}
	return out
}

// RejectAll returns one rejection per hash, in order. Batches are rejected
// as a unit.
func RejectAll(hashes []string, code int64, reason string) []Result {
	out := make([]Result, len(hashes))
	for i, h := range hashes {
		out[i] = Rejected(h, code, reason)
	}
	return out
}
