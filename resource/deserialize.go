// Package resource provides deserialization of documents into entities.
package resource

import (
	"fmt"
	"reflect"

	"github.com/CaliLuke/go-jsonapi/wire"
)

// UnmarshalOne maps a single-resource document back to its entity. The
// returned value is a pointer to the registered struct for the document's
// resource type; callers that know the type statically can use
// [UnmarshalOneAs] instead.
func (m *Mapper) UnmarshalOne(doc *wire.Document) (any, error) {
	if doc == nil {
		return nil, &wire.MalformedDocumentError{Reason: "no document"}
	}
	if doc.Many {
		return nil, &wire.MalformedDocumentError{Reason: "expected a single resource, got a collection"}
	}
	res, ok := doc.One()
	if !ok {
		return nil, &wire.MalformedDocumentError{Reason: "document has no primary data"}
	}
	op := m.newUnmarshalOp()
	if err := op.materialize(doc.Included); err != nil {
		return nil, err
	}
	inst, err := op.entity(res)
	if err != nil {
		return nil, err
	}
	return inst.Interface(), nil
}

// UnmarshalMany maps a collection document back to its entities, one per
// primary resource, in document order.
func (m *Mapper) UnmarshalMany(doc *wire.Document) ([]any, error) {
	if doc == nil {
		return nil, &wire.MalformedDocumentError{Reason: "no document"}
	}
	if !doc.Many {
		return nil, &wire.MalformedDocumentError{Reason: "expected a collection, got a single resource"}
	}
	op := m.newUnmarshalOp()
	if err := op.materialize(doc.Included); err != nil {
		return nil, err
	}
	out := make([]any, 0, len(doc.Data))
	for _, res := range doc.Data {
		inst, err := op.entity(res)
		if err != nil {
			return nil, err
		}
		out = append(out, inst.Interface())
	}
	return out, nil
}

// UnmarshalOneAs maps a single-resource document to a *T.
func UnmarshalOneAs[T any](m *Mapper, doc *wire.Document) (*T, error) {
	out, err := m.UnmarshalOne(doc)
	if err != nil {
		return nil, err
	}
	typed, ok := out.(*T)
	if !ok {
		return nil, fmt.Errorf("unmarshal: document holds %T, not %T", out, (*T)(nil))
	}
	return typed, nil
}

// UnmarshalManyAs maps a collection document to a []*T.
func UnmarshalManyAs[T any](m *Mapper, doc *wire.Document) ([]*T, error) {
	items, err := m.UnmarshalMany(doc)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(items))
	for i, item := range items {
		typed, ok := item.(*T)
		if !ok {
			return nil, fmt.Errorf("unmarshal: resource %d holds %T, not %T", i, item, (*T)(nil))
		}
		out = append(out, typed)
	}
	return out, nil
}

// unmarshalOp is the state of one deserialization operation: the identity
// map of instances materialized so far, keyed by identifier. Within one
// operation every reference to the same identifier resolves to the same
// instance.
type unmarshalOp struct {
	m         *Mapper
	instances *identityMap[reflect.Value]
}

func (m *Mapper) newUnmarshalOp() *unmarshalOp {
	return &unmarshalOp{m: m, instances: newIdentityMap[reflect.Value]()}
}

// materialize builds instances for every included resource in two passes:
// first all instances exist and carry their ids and attributes, then
// relationships are wired. The second pass can therefore resolve forward
// references and cycles within included.
func (op *unmarshalOp) materialize(included []*wire.Resource) error {
	type entry struct {
		inst reflect.Value
		c    *Contract
		res  *wire.Resource
	}
	entries := make([]entry, 0, len(included))
	for _, res := range included {
		c, err := op.m.reg.ContractByName(res.Type)
		if err != nil {
			return err
		}
		inst, err := op.instance(c, res.Identifier())
		if err != nil {
			return err
		}
		if err := op.attributes(inst, c, res); err != nil {
			return err
		}
		entries = append(entries, entry{inst: inst, c: c, res: res})
	}
	for _, e := range entries {
		if err := op.link(e.inst, e.c, e.res); err != nil {
			return err
		}
	}
	return nil
}

// entity maps one primary resource to its instance. Included resources
// must already be materialized.
func (op *unmarshalOp) entity(res *wire.Resource) (reflect.Value, error) {
	c, err := op.m.reg.ContractByName(res.Type)
	if err != nil {
		return reflect.Value{}, err
	}
	inst, err := op.instance(c, res.Identifier())
	if err != nil {
		return reflect.Value{}, err
	}
	if err := op.attributes(inst, c, res); err != nil {
		return reflect.Value{}, err
	}
	if err := op.link(inst, c, res); err != nil {
		return reflect.Value{}, err
	}
	return inst, nil
}

// instance returns the operation's instance for ident, creating one and
// setting its id on first sight. Identifier-less resources always get a
// fresh instance; they cannot be referenced, so they never enter the map.
func (op *unmarshalOp) instance(c *Contract, ident wire.Identifier) (reflect.Value, error) {
	if ident.ID != "" {
		if inst, ok := op.instances.get(ident); ok {
			return inst, nil
		}
	}
	inst := c.New()
	if ident.ID != "" {
		idv, err := idFromWire(c, ident.ID)
		if err != nil {
			return reflect.Value{}, err
		}
		c.ID.Set(inst.Elem(), idv)
		op.instances.put(ident, inst)
	}
	return inst, nil
}

// attributes coerces a resource's attribute members into the instance's
// fields. Attributes the contract does not know are ignored.
func (op *unmarshalOp) attributes(inst reflect.Value, c *Contract, res *wire.Resource) error {
	target := inst.Elem()
	for _, wa := range res.Attributes {
		a, ok := c.Attribute(wa.Name)
		if !ok {
			op.m.log.Debug("ignoring unknown attribute", "resource_type", c.ResourceType, "name", wa.Name)
			continue
		}
		v, err := fromWire(c.ResourceType+"."+a.Name, wa.Value, a.Type)
		if err != nil {
			return err
		}
		a.Set(target, v)
	}
	return nil
}

// link wires a resource's relationship members into the instance's fields.
// Relationships the contract does not know are ignored; an explicit null
// linkage clears the field.
func (op *unmarshalOp) link(inst reflect.Value, c *Contract, res *wire.Resource) error {
	target := inst.Elem()
	for i := range res.Relationships {
		wr := &res.Relationships[i]
		rel, ok := c.Relationship(wr.Name)
		if !ok {
			op.m.log.Debug("ignoring unknown relationship", "resource_type", c.ResourceType, "name", wr.Name)
			continue
		}
		if rel.ToMany {
			slice := reflect.MakeSlice(rel.FieldType, 0, len(wr.Data))
			for _, ident := range wr.Data {
				related, err := op.resolve(rel, ident)
				if err != nil {
					return err
				}
				slice = reflect.Append(slice, related)
			}
			rel.Set(target, slice)
			continue
		}
		if wr.ToMany {
			return &wire.RelationshipResolutionError{Relationship: wr.Name, Reason: "expected to-one linkage, got a collection"}
		}
		if len(wr.Data) == 0 {
			rel.Set(target, reflect.Zero(rel.FieldType))
			continue
		}
		related, err := op.resolve(rel, wr.Data[0])
		if err != nil {
			return err
		}
		rel.Set(target, related)
	}
	return nil
}

// resolve returns the instance standing for ident, materializing a stub
// holding only the id when the document never delivered the resource
// itself.
func (op *unmarshalOp) resolve(rel *Relationship, ident wire.Identifier) (reflect.Value, error) {
	if ident.Type == "" || ident.ID == "" {
		return reflect.Value{}, &wire.RelationshipResolutionError{Relationship: rel.Name, Reason: "identifier is missing type or id"}
	}
	c, err := op.m.reg.ContractByName(ident.Type)
	if err != nil {
		return reflect.Value{}, err
	}
	inst, err := op.instance(c, ident)
	if err != nil {
		return reflect.Value{}, err
	}
	if want := reflect.PointerTo(rel.TargetType); !inst.Type().AssignableTo(want) {
		return reflect.Value{}, &wire.RelationshipResolutionError{
			Relationship: rel.Name,
			Reason:       fmt.Sprintf("resource %s is not assignable to %s", ident, want),
		}
	}
	return inst, nil
}
