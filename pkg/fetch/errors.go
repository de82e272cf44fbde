package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so the service can decide
// what is retryable and what kills a source run.
type Kind int

const (
	KindConfig Kind = iota
	KindFetch
	KindRateLimit
	KindParse
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindFetch:
		return "fetch"
	case KindRateLimit:
		return "rate_limit"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error carries the failure class plus the source it happened in
type Error struct {
	Kind   Kind
	Source string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.Source != "" {
		msg += " (" + e.Source + ")"
	}
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.Err != nil {
		msg += " - " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a classified error from a format string
func Errorf(kind Kind, source, format string, args ...interface{}) *Error {
	return &Error{
		Kind:   kind,
		Source: source,
		Err:    fmt.Errorf(format, args...),
	}
}

// Wrap classifies an existing error, nil in stays nil out
func Wrap(kind Kind, source, url string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Source: source, URL: url, Err: err}
}

// IsKind reports whether err is a classified error of the given kind
func IsKind(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
