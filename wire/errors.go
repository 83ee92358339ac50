package wire

import "fmt"

// MalformedDocumentError is returned when a payload does not satisfy the
// structural rules of the document format: unparseable JSON, a root that is
// not an object, a resource object without a type, or a document whose shape
// does not match the requested operation.
type MalformedDocumentError struct {
	Reason string
}

// Error returns the error message for MalformedDocumentError.
func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document: %s", e.Reason)
}

// RelationshipResolutionError is returned when a relationship cannot be
// carried across the document boundary: a structurally invalid resource
// identifier, a related entity with no id to reference, or a resolved
// instance that does not fit the declaring field.
type RelationshipResolutionError struct {
	Relationship string
	Reason       string
}

// Error returns the error message for RelationshipResolutionError.
func (e *RelationshipResolutionError) Error() string {
	return fmt.Sprintf("relationship %q: %s", e.Relationship, e.Reason)
}
