package timeseries

import (
	"errors"
	"fmt"
)

// ErrNoDatapoints is returned by single-datapoint lookups when the
// service responds with an empty result set.
var ErrNoDatapoints = errors.New("timeseries: no datapoints in response")

// ErrorKind classifies a failed API call.
type ErrorKind string

const (
	// KindAuth covers 401 and 403 responses. Never retried.
	KindAuth ErrorKind = "auth"
	// KindBadRequest covers non-auth, non-throttle 4xx responses. Never retried.
	KindBadRequest ErrorKind = "bad_request"
	// KindNotFound covers 404 responses. Never retried.
	KindNotFound ErrorKind = "not_found"
	// KindThrottled covers 429 responses. Retried with backoff.
	KindThrottled ErrorKind = "throttled"
	// KindServer covers 5xx responses. Retried with backoff.
	KindServer ErrorKind = "server"
	// KindTransport covers network-level failures before a status code
	// was received. Retried with backoff.
	KindTransport ErrorKind = "transport"
	// KindDecode covers response bodies that do not match the expected
	// JSON shape. Never retried.
	KindDecode ErrorKind = "decode"
	// KindInvalidInput covers parameters rejected by a local format
	// check before any request is sent.
	KindInvalidInput ErrorKind = "invalid_input"
)

// Error is the typed error surfaced by all Client operations.
type Error struct {
	Op         string    // client operation, e.g. "GetDatapoints"
	Kind       ErrorKind // failure classification
	StatusCode int       // HTTP status, 0 when no response was received
	Message    string    // service-provided or local description
	RequestID  string    // X-Request-ID sent with the failed request
	Err        error     // underlying error, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("timeseries: %s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// retryable reports whether the failure may succeed on a later attempt.
func (e *Error) retryable() bool {
	switch e.Kind {
	case KindThrottled, KindServer, KindTransport:
		return true
	}
	return false
}

// KindOf returns the classification of err, or "" if err is not a
// timeseries error.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsAuth reports whether err is an authentication or authorization failure.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsRetryable reports whether err was classified as transient. A true
// result after a returned error means the retry budget was exhausted.
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.retryable()
	}
	return false
}

// IsDecode reports whether err is a local response-shape mismatch.
func IsDecode(err error) bool { return KindOf(err) == KindDecode }

// errInvalidInput builds the local validation error for op.
func errInvalidInput(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInvalidInput, Err: err}
}
