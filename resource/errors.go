// Package resource defines the error types raised while mapping entities.
package resource

import (
	"fmt"
	"reflect"
)

// ContractResolutionError is returned when a lookup during deserialization
// or relationship binding finds no registered contract, either for a wire
// type name or for a relationship's target Go type.
type ContractResolutionError struct {
	ResourceType string
	GoType       reflect.Type
}

// Error returns the error message for ContractResolutionError.
func (e *ContractResolutionError) Error() string {
	if e.ResourceType != "" {
		return fmt.Sprintf("resource type %q is not registered", e.ResourceType)
	}
	return fmt.Sprintf("type %s is not registered", e.GoType)
}

// UnresolvedContractError is returned when serialization reaches a value
// whose Go type has no registered contract, or one no contract could carry.
type UnresolvedContractError struct {
	GoType reflect.Type
	Cause  error
}

// Error returns the error message for UnresolvedContractError.
func (e *UnresolvedContractError) Error() string {
	msg := fmt.Sprintf("no contract for type %s", e.GoType)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the UnresolvedContractError.
func (e *UnresolvedContractError) Unwrap() error {
	return e.Cause
}

// TypeCoercionError is returned when a wire value cannot be coerced into the
// declared Go type, or an entity value cannot be carried onto the wire.
type TypeCoercionError struct {
	// Target names the failing slot as resource-type.field, or ".id" for
	// the primary field.
	Target string
	Value  any
	Want   reflect.Type
	Cause  error
}

// Error returns the error message for TypeCoercionError.
func (e *TypeCoercionError) Error() string {
	msg := fmt.Sprintf("cannot coerce %v into %s for %s", e.Value, e.Want, e.Target)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the TypeCoercionError.
func (e *TypeCoercionError) Unwrap() error {
	return e.Cause
}
