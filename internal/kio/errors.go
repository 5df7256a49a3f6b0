package kio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed load.
type ErrorKind int

const (
	KindIO ErrorKind = iota + 1
	KindFraming
	KindTokenMismatch
	KindSizeMismatch
	KindDimensionChain
	KindUnknownComponent
	KindCapacityExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindFraming:
		return "framing"
	case KindTokenMismatch:
		return "token_mismatch"
	case KindSizeMismatch:
		return "size_mismatch"
	case KindDimensionChain:
		return "dimension_chain_mismatch"
	case KindUnknownComponent:
		return "unknown_component"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrIO               = errors.New("kio: i/o failure")
	ErrFraming          = errors.New("kio: unexpected framing")
	ErrTokenMismatch    = errors.New("kio: token mismatch")
	ErrSizeMismatch     = errors.New("kio: size mismatch")
	ErrDimensionChain   = errors.New("kio: layer dimension chain mismatch")
	ErrUnknownComponent = errors.New("kio: unknown component")
	ErrCapacityExceeded = errors.New("kio: layer capacity exceeded")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindIO:
		return ErrIO
	case KindFraming:
		return ErrFraming
	case KindTokenMismatch:
		return ErrTokenMismatch
	case KindSizeMismatch:
		return ErrSizeMismatch
	case KindDimensionChain:
		return ErrDimensionChain
	case KindUnknownComponent:
		return ErrUnknownComponent
	case KindCapacityExceeded:
		return ErrCapacityExceeded
	default:
		return nil
	}
}

// FormatError describes why a stream could not be decoded. Want and Got carry
// the declared and observed values when the failure is a comparison.
type FormatError struct {
	Kind   ErrorKind
	Op     string
	Token  string
	Want   string
	Got    string
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Token != "" {
		fmt.Fprintf(&b, " token %q", e.Token)
	}
	if e.Want != "" || e.Got != "" {
		fmt.Fprintf(&b, " (want %s, got %s)", e.Want, e.Got)
	}
	fmt.Fprintf(&b, " at offset %d", e.Offset)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Kind.
func (e *FormatError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the ErrorKind carried by err, or 0 if err is not a FormatError.
func KindOf(err error) ErrorKind {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// Errorf builds a FormatError with a formatted detail message as its cause.
func Errorf(kind ErrorKind, op string, format string, args ...any) *FormatError {
	return &FormatError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Mismatch builds a FormatError for a declared-vs-observed comparison.
func Mismatch(kind ErrorKind, op string, want, got any) *FormatError {
	return &FormatError{Kind: kind, Op: op, Want: fmt.Sprint(want), Got: fmt.Sprint(got)}
}
