// Package resource provides the presence-aware patch model for updates.
package resource

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/CaliLuke/go-jsonapi/wire"
)

// Patch is a read-only view over the defined members of an update resource.
// It distinguishes a member that was absent from one that was explicitly
// null, coerces attribute values lazily, and applies only what the document
// defined.
type Patch struct {
	m        *Mapper
	contract *Contract
	id       string
	attrs    map[string]wire.Val
	rels     map[string]*wire.Relationship
	cache    map[string]reflect.Value
}

// BuildPatch captures the defined members of res as a patch against the
// given contract. The resource's type must match the contract; a present id
// is checked against the id field's type up front.
func (m *Mapper) BuildPatch(c *Contract, res *wire.Resource) (*Patch, error) {
	if res == nil {
		return nil, &wire.MalformedDocumentError{Reason: "no resource to patch from"}
	}
	if res.Type != c.ResourceType {
		return nil, &wire.MalformedDocumentError{Reason: fmt.Sprintf("resource type %q does not match %q", res.Type, c.ResourceType)}
	}
	if res.ID != "" {
		if _, err := idFromWire(c, res.ID); err != nil {
			return nil, err
		}
	}
	p := &Patch{
		m:        m,
		contract: c,
		id:       res.ID,
		attrs:    make(map[string]wire.Val, len(res.Attributes)),
		rels:     make(map[string]*wire.Relationship, len(res.Relationships)),
		cache:    make(map[string]reflect.Value),
	}
	for _, a := range res.Attributes {
		p.attrs[a.Name] = a.Value
	}
	for i := range res.Relationships {
		r := &res.Relationships[i]
		p.rels[r.Name] = &r.Relationship
	}
	return p, nil
}

// ID returns the resource's wire id, empty when the document carried none.
// The id is identity, not state: [Patch.Apply] never writes it.
func (p *Patch) ID() string {
	return p.id
}

// IsDefined reports whether the document defined the named member, an
// explicit null included. It covers attributes and relationships alike.
func (p *Patch) IsDefined(field string) bool {
	if _, ok := p.attrs[field]; ok {
		return true
	}
	_, ok := p.rels[field]
	return ok
}

// Value returns the named attribute coerced to the contract's field type.
// Coercions are memoized, so repeated lookups of the same field are cheap.
// An attribute the contract does not declare, or one the document left
// undefined, is an error.
func (p *Patch) Value(field string) (any, error) {
	a, ok := p.contract.Attribute(field)
	if !ok {
		return nil, fmt.Errorf("patch: no declared attribute %q on %s", field, p.contract.ResourceType)
	}
	raw, ok := p.attrs[field]
	if !ok {
		return nil, fmt.Errorf("patch: attribute %q is not defined", field)
	}
	v, err := p.coerce(a, raw)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// PatchValue is the typed convenience over [Patch.Value].
func PatchValue[T any](p *Patch, field string) (T, error) {
	var zero T
	v, err := p.Value(field)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("patch: attribute %q holds %T, not %T", field, v, zero)
	}
	return typed, nil
}

// Relationship returns the named relationship's linkage and whether the
// document defined it.
func (p *Patch) Relationship(name string) (*wire.Relationship, bool) {
	r, ok := p.rels[name]
	return r, ok
}

// Apply mutates only the defined fields of target, a non-nil pointer to
// the contract's struct type. Defined attributes are set, an explicit null
// setting the zero value. Defined to-one relationships are set to a stub
// instance carrying the referenced id, null clearing the field; defined
// to-many relationships replace the whole slice.
func (p *Patch) Apply(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Type() != p.contract.GoType {
		return fmt.Errorf("apply patch: target must be a non-nil *%s", p.contract.GoType)
	}
	tv := v.Elem()

	for _, name := range sortedNames(p.attrs) {
		a, ok := p.contract.Attribute(name)
		if !ok {
			p.m.log.Debug("ignoring unknown attribute in patch", "resource_type", p.contract.ResourceType, "name", name)
			continue
		}
		val, err := p.coerce(a, p.attrs[name])
		if err != nil {
			return err
		}
		a.Set(tv, val)
	}

	for _, name := range sortedNames(p.rels) {
		rel, ok := p.contract.Relationship(name)
		if !ok {
			p.m.log.Debug("ignoring unknown relationship in patch", "resource_type", p.contract.ResourceType, "name", name)
			continue
		}
		wr := p.rels[name]
		if rel.ToMany {
			slice := reflect.MakeSlice(rel.FieldType, 0, len(wr.Data))
			for _, ident := range wr.Data {
				stub, err := p.stub(rel, ident)
				if err != nil {
					return err
				}
				slice = reflect.Append(slice, stub)
			}
			rel.Set(tv, slice)
			continue
		}
		if wr.ToMany {
			return &wire.RelationshipResolutionError{Relationship: name, Reason: "expected to-one linkage, got a collection"}
		}
		if len(wr.Data) == 0 {
			rel.Set(tv, reflect.Zero(rel.FieldType))
			continue
		}
		stub, err := p.stub(rel, wr.Data[0])
		if err != nil {
			return err
		}
		rel.Set(tv, stub)
	}
	return nil
}

// coerce converts one raw attribute value through the memoization cache.
func (p *Patch) coerce(a *Attribute, raw wire.Val) (reflect.Value, error) {
	if v, ok := p.cache[a.Name]; ok {
		return v, nil
	}
	v, err := fromWire(p.contract.ResourceType+"."+a.Name, raw, a.Type)
	if err != nil {
		return reflect.Value{}, err
	}
	p.cache[a.Name] = v
	return v, nil
}

// stub materializes an instance carrying only the id the identifier names.
func (p *Patch) stub(rel *Relationship, ident wire.Identifier) (reflect.Value, error) {
	if ident.Type == "" || ident.ID == "" {
		return reflect.Value{}, &wire.RelationshipResolutionError{Relationship: rel.Name, Reason: "identifier is missing type or id"}
	}
	c, err := p.m.reg.ContractByName(ident.Type)
	if err != nil {
		return reflect.Value{}, err
	}
	inst := c.New()
	idv, err := idFromWire(c, ident.ID)
	if err != nil {
		return reflect.Value{}, err
	}
	c.ID.Set(inst.Elem(), idv)
	if want := reflect.PointerTo(rel.TargetType); !inst.Type().AssignableTo(want) {
		return reflect.Value{}, &wire.RelationshipResolutionError{
			Relationship: rel.Name,
			Reason:       fmt.Sprintf("resource %s is not assignable to %s", ident, want),
		}
	}
	return inst, nil
}

// sortedNames returns a map's keys in sorted order, for deterministic
// application and error reporting.
func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
