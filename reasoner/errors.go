package reasoner

import (
	"errors"
	"fmt"
)

var (
	// ErrInconsistent is returned by queries that need a model of an
	// inconsistent knowledge base.
	ErrInconsistent = errors.New("knowledge base is inconsistent")

	// ErrForeignHandle indicates an entity handle of the wrong kind or one
	// that was not issued by this kernel.
	ErrForeignHandle = errors.New("foreign entity handle")

	// ErrEmptyExpression indicates a class or role constructor called with
	// no operands.
	ErrEmptyExpression = errors.New("empty expression")

	// ErrInvalidCardinality indicates a negative cardinality bound.
	ErrInvalidCardinality = errors.New("invalid cardinality")
)

func wrap(err error, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("kernel.%s: %s failed: %w", method, action, err)
}
