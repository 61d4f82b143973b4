package proxy

import (
	"errors"
	"fmt"
)

var (
	// ErrImmutableIdentifier is returned when writing the identifier attribute.
	ErrImmutableIdentifier = errors.New("proxy: the identifier of an entity cannot be changed")

	// ErrDetachedReference is returned when resolving a reference that no session owns.
	ErrDetachedReference = errors.New("proxy: identity reference is not bound to a session")
)

// EntityNotFoundError is returned when materialization finds no row for an identifier.
type EntityNotFoundError struct {
	Type string
	ID   any
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity %s with id %v not found", e.Type, e.ID)
}

// UnknownAttributeError is returned when an attribute name is not declared on the type.
type UnknownAttributeError struct {
	Type      string
	Attribute string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("entity %s has no attribute %q", e.Type, e.Attribute)
}

// UnknownEntityTypeError is returned when a session is asked for an undeclared type.
type UnknownEntityTypeError struct {
	Name string
}

func (e *UnknownEntityTypeError) Error() string {
	return fmt.Sprintf("unknown entity type %q", e.Name)
}

// InvalidAttributeValueError is returned when a written association value does not fit
// the association.
type InvalidAttributeValueError struct {
	Type      string
	Attribute string
	Reason    string
}

func (e *InvalidAttributeValueError) Error() string {
	return fmt.Sprintf("invalid value for %s.%s: %s", e.Type, e.Attribute, e.Reason)
}

// IsEntityNotFound checks if an error is an *EntityNotFoundError.
func IsEntityNotFound(err error) bool {
	var notFound *EntityNotFoundError
	return errors.As(err, &notFound)
}
