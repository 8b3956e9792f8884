// Package apperrors defines the error taxonomy shared by the task store, the
// approval workflow and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthorizationError reports an actor lacking the role or ownership an action needs.
type AuthorizationError struct {
	Action string
	Reason string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not allowed to %s: %s", e.Action, e.Reason)
}

// IllegalTransition reports a status change the transition table does not permit.
type IllegalTransition struct {
	From string
	To   string
}

func (e *IllegalTransition) Error() string {
	return fmt.Sprintf("illegal status transition from %q to %q", e.From, e.To)
}

// NotFoundError reports a missing (or soft-deleted) task or referenced user.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// DatabaseError wraps a persistence failure. The transaction it came from has
// already been rolled back.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func Forbidden(action, reason string) error {
	return &AuthorizationError{Action: action, Reason: reason}
}

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func Database(op string, err error) error {
	return &DatabaseError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

func IsIllegalTransition(err error) bool {
	var target *IllegalTransition
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsDatabase(err error) bool {
	var target *DatabaseError
	return errors.As(err, &target)
}
