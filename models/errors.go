package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrOperationNotPermitted  = errors.New("operation not permitted")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidHierarchy       = errors.New("invalid category hierarchy")
	ErrInvalidInput           = errors.New("invalid input")
	ErrDatabase               = errors.New("database error")
	ErrUnexpected             = errors.New("unexpected error")
)

// NotFoundError names the missing entity. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	Code   string
}

func (e *NotFoundError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.Code)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NotFound(entity, code string) error {
	return &NotFoundError{Entity: entity, Code: code}
}

// NotPermitted builds an ErrOperationNotPermitted with a reason.
func NotPermitted(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOperationNotPermitted, fmt.Sprintf(format, args...))
}
