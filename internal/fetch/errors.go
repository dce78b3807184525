package fetch

import (
	"errors"
	"strings"
)

var (
	// ErrCancelled resolves a request that was cancelled before it completed.
	// It is never shown to the user.
	ErrCancelled = errors.New("request cancelled")

	// ErrEmptyResponse is returned by sources when a response parsed
	// successfully but carried neither data nor errors.
	ErrEmptyResponse = errors.New("no data returned")
)

// TransportError wraps network, HTTP and server-reported GraphQL failures.
type TransportError struct {
	Op       string
	Err      error
	Messages []string
}

func (e *TransportError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case len(e.Messages) > 0:
		b.WriteString(strings.Join(e.Messages, "; "))
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("transport error")
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrorKind classifies a user-visible error.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindEmpty
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// ErrorInfo is the form in which failures reach the UI.
type ErrorInfo struct {
	Kind    ErrorKind
	Message string
}

func (e *ErrorInfo) Error() string { return e.Message }

// Describe converts err into the form shown to users. Cancellation yields nil.
func Describe(err error) *ErrorInfo {
	if err == nil || errors.Is(err, ErrCancelled) {
		return nil
	}
	if errors.Is(err, ErrEmptyResponse) {
		return &ErrorInfo{Kind: KindEmpty, Message: "No data returned."}
	}
	var te *TransportError
	if errors.As(err, &te) {
		msg := strings.Join(te.Messages, "\n")
		if msg == "" && te.Err != nil {
			msg = te.Err.Error()
		}
		if msg == "" {
			msg = te.Error()
		}
		return &ErrorInfo{Kind: KindTransport, Message: msg}
	}
	return &ErrorInfo{Kind: KindUnknown, Message: err.Error()}
}
