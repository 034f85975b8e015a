package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Kind classifies why a call failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindBadURL
	KindBadStatus
	KindDecode
	KindTransport
	KindEncode
)

func (k Kind) String() string {
	switch k {
	case KindBadURL:
		return "bad_url"
	case KindBadStatus:
		return "bad_status"
	case KindDecode:
		return "decode_failure"
	case KindTransport:
		return "transport_failure"
	case KindEncode:
		return "encode_failure"
	default:
		return "unknown"
	}
}

// StatusUnknown is reported when a response carried no interpretable status line.
const StatusUnknown = -1

// Error is the single error type returned by the client. StatusCode and Body
// are set for KindBadStatus and KindDecode.
type Error struct {
	Kind       Kind
	StatusCode int
	Body       []byte
	Err        error
}

// Sentinels for errors.Is matching on the kind alone.
var (
	ErrBadURL    = &Error{Kind: KindBadURL}
	ErrBadStatus = &Error{Kind: KindBadStatus}
	ErrDecode    = &Error{Kind: KindDecode}
	ErrTransport = &Error{Kind: KindTransport}
	ErrEncode    = &Error{Kind: KindEncode}
	ErrUnknown   = &Error{Kind: KindUnknown}
)

var (
	errNilClient   = errors.New("nil client")
	errNilResponse = errors.New("transport returned no response")
)

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("apiclient: ")
	b.WriteString(e.Kind.String())
	if e.Kind == KindBadStatus {
		fmt.Fprintf(&b, " %d", e.StatusCode)
		if snippet := bodySnippet(e.Body); snippet != "" {
			b.WriteString(" body: ")
			b.WriteString(snippet)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the kind sentinels (ErrBadStatus etc.).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind && t.Err == nil && t.StatusCode == 0 && t.Body == nil
}

// Retryable reports whether a caller-side retry could plausibly succeed.
// The client itself never retries.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindTransport:
		return !errors.Is(e.Err, context.Canceled)
	case KindBadStatus:
		return e.StatusCode == http.StatusTooManyRequests ||
			e.StatusCode == http.StatusRequestTimeout ||
			e.StatusCode == StatusUnknown ||
			(e.StatusCode >= 500 && e.StatusCode <= 599)
	}
	return false
}

// KindOf returns the kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
