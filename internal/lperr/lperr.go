// Package lperr classifies liquidity engine failures into a small set of kinds so
// callers can tell local validation failures from remote ones without matching
// error strings.
package lperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags an engine failure.
type Kind string

const (
	KindUnknown              Kind = ""
	KindInvalidPriceFormat   Kind = "invalid_price_format"
	KindInvalidAmount        Kind = "invalid_amount"
	KindEmptyPool            Kind = "empty_pool"
	KindEmptyPosition        Kind = "empty_position"
	KindInconsistentSnapshot Kind = "inconsistent_snapshot"
	KindInsufficientBalance  Kind = "insufficient_balance"
	KindTransient            Kind = "transient"
	KindSubmissionRejected   Kind = "submission_rejected"
)

// Local reports whether the kind is raised before any network interaction.
func (k Kind) Local() bool {
	switch k {
	case KindInvalidPriceFormat, KindInvalidAmount, KindEmptyPool, KindEmptyPosition, KindInconsistentSnapshot:
		return true
	default:
		return false
	}
}

// Recoverable reports whether the user can fix the input and retry.
func (k Kind) Recoverable() bool {
	return k == KindInsufficientBalance || k.Local()
}

// Error is a classified failure.
type Error struct {
	Kind  Kind
	Op    string
	Msg   string
	Codes []string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Codes) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Codes, ","))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == ""
}

// New builds a classified error.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
