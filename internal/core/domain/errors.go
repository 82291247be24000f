package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrTemporary      = errors.New("temporary failure")
	ErrUpstream       = errors.New("upstream failure")
	ErrMalformedReply = errors.New("malformed model reply")
	ErrStorage        = errors.New("storage failure")
	ErrConfig         = errors.New("invalid configuration")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// IsSkippable reports whether err only affects the current document.
// Configuration errors abort the whole batch.
func IsSkippable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrConfig)
}
