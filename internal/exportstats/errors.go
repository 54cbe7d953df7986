package exportstats

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrInvalidQuery is returned when a query fails validation before dispatch.
var ErrInvalidQuery = errors.New("exportstats: invalid query")

// Kind classifies a gateway failure.
type Kind uint8

const (
	// KindUnknown covers failures that carry no classification.
	KindUnknown Kind = iota
	// KindTransport covers timeouts, refused connections and DNS failures.
	KindTransport
	// KindServer covers non-2xx responses.
	KindServer
	// KindDecode covers response bodies that do not match the expected shape.
	KindDecode
)

// String returns the metric/log label of the kind.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error describes a failed gateway request.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status > 0 && e.Message != "":
		return fmt.Sprintf("exportstats: %s: status %d: %s", e.Op, e.Status, e.Message)
	case e.Status > 0:
		return fmt.Sprintf("exportstats: %s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("exportstats: %s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("exportstats: %s: %s failure", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errorBody mirrors the backend's error response payload.
type errorBody struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
	Status    int    `json:"status"`
	Path      string `json:"path"`
}

// KindOf classifies err. Errors that did not originate from the gateway are
// classified by their cause where possible.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransport
	}
	return KindUnknown
}
