// Package resource provides parsing and representation of 'jsonapi' struct tags.
package resource

import (
	"fmt"
	"strings"
)

// TagKind is the binding role a tagged field plays in a contract.
type TagKind int

const (
	// TagPrimary marks the id field; the tag's name element is the
	// resource type name.
	TagPrimary TagKind = iota + 1
	// TagAttr marks an attribute field.
	TagAttr
	// TagRelation marks a relationship field.
	TagRelation
)

// FieldTag is the structured form of a parsed `jsonapi` struct tag.
type FieldTag struct {
	// Kind is the field's binding role.
	Kind TagKind
	// Name is the wire name: the resource type for primary fields, the
	// member name for attributes and relationships. Empty means derive it
	// from the field name.
	Name string
	// OmitEmpty drops zero-valued attributes and nil relationships from
	// output.
	OmitEmpty bool
	// Skip indicates the field takes no part in the contract.
	Skip bool
}

// ParseTag parses the content of a `jsonapi` struct tag into a FieldTag.
// The first element is the binding kind (primary, attr, relation), the
// second the wire name, and the rest options (omitempty). Untagged fields
// and "-" are skipped.
func ParseTag(tag string) (FieldTag, error) {
	if tag == "" || tag == "-" {
		return FieldTag{Skip: true}, nil
	}

	parts := strings.Split(tag, ",")
	ft := FieldTag{}

	switch strings.TrimSpace(parts[0]) {
	case "primary":
		ft.Kind = TagPrimary
	case "attr":
		ft.Kind = TagAttr
	case "relation":
		ft.Kind = TagRelation
	default:
		return FieldTag{}, fmt.Errorf("unknown field kind %q", parts[0])
	}

	if len(parts) > 1 {
		ft.Name = strings.TrimSpace(parts[1])
	}

	for _, part := range parts[2:] {
		part = strings.TrimSpace(part)
		switch part {
		case "":
		case "omitempty":
			if ft.Kind == TagPrimary {
				return FieldTag{}, fmt.Errorf("omitempty does not apply to primary fields")
			}
			ft.OmitEmpty = true
		default:
			return FieldTag{}, fmt.Errorf("unknown tag option: %q", part)
		}
	}

	return ft, nil
}

// validMemberName reports whether name is a legal wire member or type name:
// alphanumeric at the edges, alphanumeric plus '-' and '_' inside.
func validMemberName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		alnum := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
		if alnum {
			continue
		}
		if (c == '-' || c == '_') && i > 0 && i < len(name)-1 {
			continue
		}
		return false
	}
	return true
}
