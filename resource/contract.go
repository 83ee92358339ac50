// Package resource provides reflection-based mapping between Go structs and
// resource objects.
package resource

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
)

// Contract describes how one Go struct type maps onto a resource type: its
// wire type name, its id field, and its attribute and relationship bindings
// in declaration order. Contracts are built once at registration and never
// mutated afterwards, so they are safe to share across goroutines.
type Contract struct {
	// ResourceType is the wire type name.
	ResourceType string
	// GoType is the bound struct type, never a pointer.
	GoType reflect.Type
	// ID describes the primary field.
	ID *IDField
	// Attributes lists the attribute bindings in declaration order.
	Attributes []*Attribute
	// Relationships lists the relationship bindings in declaration order.
	Relationships []*Relationship

	registry    *Registry
	attrsByName map[string]*Attribute
	relsByName  map[string]*Relationship
}

// Attribute retrieves an attribute binding by its wire name.
func (c *Contract) Attribute(name string) (*Attribute, bool) {
	a, ok := c.attrsByName[name]
	return a, ok
}

// Relationship retrieves a relationship binding by its wire name.
func (c *Contract) Relationship(name string) (*Relationship, bool) {
	r, ok := c.relsByName[name]
	return r, ok
}

// New allocates a fresh instance of the bound struct type and returns the
// pointer value.
func (c *Contract) New() reflect.Value {
	return reflect.New(c.GoType)
}

// IDField describes the primary field of a contract.
type IDField struct {
	// FieldName is the name of the field in the Go struct.
	FieldName string
	// Index is the 0-based index of the field in the Go struct.
	Index int
	// Type is the declared id type: a string, an integer kind, or uuid.UUID.
	Type reflect.Type

	get func(entity reflect.Value) reflect.Value
	set func(entity, v reflect.Value)
}

// Get reads the id field from an addressable struct value.
func (f *IDField) Get(entity reflect.Value) reflect.Value {
	return f.get(entity)
}

// Set writes the id field on an addressable struct value.
func (f *IDField) Set(entity, v reflect.Value) {
	f.set(entity, v)
}

// Attribute describes one attribute binding.
type Attribute struct {
	// Name is the wire member name.
	Name string
	// FieldName is the name of the field in the Go struct.
	FieldName string
	// Index is the 0-based index of the field in the Go struct.
	Index int
	// Type is the declared field type.
	Type reflect.Type
	// OmitEmpty drops the attribute from output when the value is zero.
	OmitEmpty bool

	get func(entity reflect.Value) reflect.Value
	set func(entity, v reflect.Value)
}

// Get reads the attribute field from an addressable struct value.
func (a *Attribute) Get(entity reflect.Value) reflect.Value {
	return a.get(entity)
}

// Set writes the attribute field on an addressable struct value.
func (a *Attribute) Set(entity, v reflect.Value) {
	a.set(entity, v)
}

// Relationship describes one relationship binding. The target contract is
// resolved lazily on first traversal so registration order never matters
// for mutually referential types.
type Relationship struct {
	// Name is the wire member name.
	Name string
	// FieldName is the name of the field in the Go struct.
	FieldName string
	// Index is the 0-based index of the field in the Go struct.
	Index int
	// ToMany is true for slice fields.
	ToMany bool
	// FieldType is the declared field type: *T or []*T.
	FieldType reflect.Type
	// TargetType is the related struct type T.
	TargetType reflect.Type
	// OmitEmpty drops the relationship from output when the field is nil,
	// instead of emitting explicit null or empty linkage.
	OmitEmpty bool

	contract *Contract
	target   atomic.Pointer[Contract]

	get func(entity reflect.Value) reflect.Value
	set func(entity, v reflect.Value)
}

// Get reads the relationship field from an addressable struct value.
func (r *Relationship) Get(entity reflect.Value) reflect.Value {
	return r.get(entity)
}

// Set writes the relationship field on an addressable struct value.
func (r *Relationship) Set(entity, v reflect.Value) {
	r.set(entity, v)
}

// Target resolves the related contract from the owning registry, memoizing
// the result. Concurrent first resolutions race benignly; every caller sees
// the same published contract.
func (r *Relationship) Target() (*Contract, error) {
	if c := r.target.Load(); c != nil {
		return c, nil
	}
	c, ok := r.contract.registry.lookupType(r.TargetType)
	if !ok {
		return nil, &ContractResolutionError{GoType: r.TargetType}
	}
	r.target.CompareAndSwap(nil, c)
	return r.target.Load(), nil
}

// --- Construction ---

// buildContract analyzes a struct type and extracts its contract. override,
// when non-nil, overlays manifest-declared binding on top of the tags.
func buildContract(t reflect.Type, reg *Registry, override *ManifestResource) (*Contract, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct, got %s", t.Kind())
	}

	c := &Contract{
		GoType:      t,
		registry:    reg,
		attrsByName: make(map[string]*Attribute),
		relsByName:  make(map[string]*Relationship),
	}
	if override != nil {
		c.ResourceType = override.Type
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Anonymous {
			continue
		}

		tag, err := ParseTag(field.Tag.Get("jsonapi"))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		if override != nil {
			tag = override.apply(field.Name, tag)
		}
		if tag.Skip {
			continue
		}

		switch tag.Kind {
		case TagPrimary:
			if c.ID != nil {
				return nil, fmt.Errorf("field %s: %s already holds the id", field.Name, c.ID.FieldName)
			}
			if !supportedIDType(field.Type) {
				return nil, fmt.Errorf("field %s: unsupported id type %s", field.Name, field.Type)
			}
			if tag.Name != "" {
				c.ResourceType = tag.Name
			}
			c.ID = newIDField(field, i)

		case TagAttr:
			a := newAttribute(field, i, tag)
			if !validMemberName(a.Name) {
				return nil, fmt.Errorf("field %s: invalid attribute name %q", field.Name, a.Name)
			}
			if err := c.claimName(a.Name); err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			c.Attributes = append(c.Attributes, a)
			c.attrsByName[a.Name] = a

		case TagRelation:
			r, err := newRelationship(field, i, tag, c)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			if !validMemberName(r.Name) {
				return nil, fmt.Errorf("field %s: invalid relationship name %q", field.Name, r.Name)
			}
			if err := c.claimName(r.Name); err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			c.Relationships = append(c.Relationships, r)
			c.relsByName[r.Name] = r
		}
	}

	if c.ID == nil {
		return nil, fmt.Errorf("type %s has no primary field", t.Name())
	}
	if c.ResourceType == "" {
		c.ResourceType = toKebabCase(t.Name())
	}
	if !validMemberName(c.ResourceType) {
		return nil, fmt.Errorf("invalid resource type name %q", c.ResourceType)
	}
	return c, nil
}

// claimName enforces the shared attribute/relationship namespace.
func (c *Contract) claimName(name string) error {
	if _, dup := c.attrsByName[name]; dup {
		return fmt.Errorf("wire name %q already bound", name)
	}
	if _, dup := c.relsByName[name]; dup {
		return fmt.Errorf("wire name %q already bound", name)
	}
	return nil
}

func newIDField(field reflect.StructField, index int) *IDField {
	return &IDField{
		FieldName: field.Name,
		Index:     index,
		Type:      field.Type,
		get: func(entity reflect.Value) reflect.Value {
			return entity.Field(index)
		},
		set: func(entity, v reflect.Value) {
			entity.Field(index).Set(v)
		},
	}
}

func newAttribute(field reflect.StructField, index int, tag FieldTag) *Attribute {
	name := tag.Name
	if name == "" {
		name = toKebabCase(field.Name)
	}
	return &Attribute{
		Name:      name,
		FieldName: field.Name,
		Index:     index,
		Type:      field.Type,
		OmitEmpty: tag.OmitEmpty,
		get: func(entity reflect.Value) reflect.Value {
			return entity.Field(index)
		},
		set: func(entity, v reflect.Value) {
			entity.Field(index).Set(v)
		},
	}
}

func newRelationship(field reflect.StructField, index int, tag FieldTag, owner *Contract) (*Relationship, error) {
	name := tag.Name
	if name == "" {
		name = toKebabCase(field.Name)
	}
	r := &Relationship{
		Name:      name,
		FieldName: field.Name,
		Index:     index,
		FieldType: field.Type,
		OmitEmpty: tag.OmitEmpty,
		contract:  owner,
		get: func(entity reflect.Value) reflect.Value {
			return entity.Field(index)
		},
		set: func(entity, v reflect.Value) {
			entity.Field(index).Set(v)
		},
	}

	switch field.Type.Kind() {
	case reflect.Ptr:
		if field.Type.Elem().Kind() != reflect.Struct {
			return nil, fmt.Errorf("relationship field must be a struct pointer or a slice of struct pointers, got %s", field.Type)
		}
		r.TargetType = field.Type.Elem()
	case reflect.Slice:
		elem := field.Type.Elem()
		if elem.Kind() != reflect.Ptr || elem.Elem().Kind() != reflect.Struct {
			return nil, fmt.Errorf("relationship field must be a struct pointer or a slice of struct pointers, got %s", field.Type)
		}
		r.ToMany = true
		r.TargetType = elem.Elem()
	default:
		return nil, fmt.Errorf("relationship field must be a struct pointer or a slice of struct pointers, got %s", field.Type)
	}
	return r, nil
}

// supportedIDType reports whether t can serve as a primary field: a string
// kind, an integer kind, or uuid.UUID.
func supportedIDType(t reflect.Type) bool {
	if t == uuidType {
		return true
	}
	switch t.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// toKebabCase converts a PascalCase Go name to kebab-case.
// e.g. "UserAccount" → "user-account"
func toKebabCase(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteByte(byte(r - 'A' + 'a'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
