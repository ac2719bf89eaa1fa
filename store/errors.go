package store

import (
	"errors"
	"fmt"
)

var (
	// ErrContractViolation marks misuse of the store's bookkeeping: a property
	// kind assigned twice, a list collected before it is complete or twice.
	ErrContractViolation = errors.New("contract violation")

	// ErrKindConflict is returned when a property already resolved to one kind
	// is declared as the other.
	ErrKindConflict = fmt.Errorf("%w: property kind conflict", ErrContractViolation)

	// ErrKindMismatch is returned when a value's shape contradicts the kind of
	// its property, e.g. a literal object for an object property.
	ErrKindMismatch = fmt.Errorf("%w: value does not match property kind", ErrContractViolation)

	// ErrListIncomplete is returned when no path from a list head to rdf:nil
	// exists.
	ErrListIncomplete = fmt.Errorf("%w: list has no path to rdf:nil", ErrContractViolation)

	// ErrUnboundPredicate is yielded by Triples for a pattern without a
	// predicate.
	ErrUnboundPredicate = errors.New("pattern predicate must be bound")
)

// errIgnored makes Add log and count a triple instead of failing.
var errIgnored = errors.New("unsupported construct")

// ignoredError carries a bounded reason, used as a metric label, and a
// free-form detail for the log.
type ignoredError struct {
	reason string
	detail string
}

func (e *ignoredError) Error() string {
	return fmt.Sprintf("unsupported %s: %s", e.reason, e.detail)
}

func (e *ignoredError) Is(target error) bool { return target == errIgnored }

func ignored(reason, detail string) error {
	return &ignoredError{reason: reason, detail: detail}
}

func wrap(err error, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("store.%s: %s failed: %w", method, action, err)
}
