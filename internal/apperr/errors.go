package apperr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable error category reported to API clients.
type Kind string

const (
	KindInvalidArgument     Kind = "invalid_argument"
	KindLocationNotFound    Kind = "location_not_found"
	KindInvalidAPIKey       Kind = "invalid_api_key"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindRateLimited         Kind = "rate_limited"
	KindConfig              Kind = "config_error"
	KindInternal            Kind = "internal"
)

// kindError is a sentinel carrying a Kind. A child kind matches its parent
// with errors.Is, so RateLimited is also a ProviderUnavailable.
type kindError struct {
	kind   Kind
	msg    string
	parent *kindError
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool {
	t, ok := target.(*kindError)
	if !ok {
		return false
	}
	for k := e; k != nil; k = k.parent {
		if k == t {
			return true
		}
	}
	return false
}

var (
	ErrInvalidArgument     = &kindError{kind: KindInvalidArgument, msg: "invalid argument"}
	ErrLocationNotFound    = &kindError{kind: KindLocationNotFound, msg: "location not found"}
	ErrInvalidAPIKey       = &kindError{kind: KindInvalidAPIKey, msg: "invalid api key"}
	ErrProviderUnavailable = &kindError{kind: KindProviderUnavailable, msg: "provider unavailable"}
	ErrRateLimited         = &kindError{kind: KindRateLimited, msg: "rate limited", parent: ErrProviderUnavailable}
)

// ConfigError reports malformed static data. It is fatal at startup.
type ConfigError struct {
	Source string
	Field  string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s (%s): %v", e.Source, e.Field, e.Err)
	}
	return fmt.Sprintf("config error in %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// InvalidArgument wraps ErrInvalidArgument with a formatted detail.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// KindOf returns the most specific Kind found in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var cfg *ConfigError
	if errors.As(err, &cfg) {
		return KindConfig
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindInternal
}
