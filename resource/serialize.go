// Package resource provides serialization of entities into documents.
package resource

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/CaliLuke/go-jsonapi/params"
	"github.com/CaliLuke/go-jsonapi/wire"
)

// Mapper carries entities across the document boundary in both directions.
// It wraps a registry and holds no per-operation state, so one mapper serves
// concurrent operations.
type Mapper struct {
	reg *Registry
	log hclog.Logger
}

// NewMapper creates a mapper over the given registry. The mapper inherits
// the registry's logger.
func NewMapper(reg *Registry) *Mapper {
	return &Mapper{reg: reg, log: reg.log}
}

// MarshalOption adjusts a single marshal operation.
type MarshalOption func(*marshalOp)

// WithFieldset restricts which attributes and relationships serialize per
// resource type.
func WithFieldset(fields params.Fieldset) MarshalOption {
	return func(op *marshalOp) {
		op.fields = fields
	}
}

// WithInclude opts relationship paths into the compound document. Without
// it no related resources are included.
func WithInclude(include *params.IncludeSet) MarshalOption {
	return func(op *marshalOp) {
		op.include = include
	}
}

// WithLinks decorates the produced document with a links member.
func WithLinks(links wire.Links) MarshalOption {
	return func(op *marshalOp) {
		op.links = links
	}
}

// WithMeta decorates the produced document with a meta member.
func WithMeta(meta wire.Meta) MarshalOption {
	return func(op *marshalOp) {
		op.meta = meta
	}
}

// marshalOp is the state of one serialization operation: its options, its
// identity map of included resources, and the identifiers already emitted.
type marshalOp struct {
	m        *Mapper
	fields   params.Fieldset
	include  *params.IncludeSet
	links    wire.Links
	meta     wire.Meta
	included *identityMap[*wire.Resource]
	visited  map[wire.Identifier]bool
}

func (m *Mapper) newMarshalOp(opts []MarshalOption) *marshalOp {
	op := &marshalOp{
		m:        m,
		included: newIdentityMap[*wire.Resource](),
		visited:  make(map[wire.Identifier]bool),
	}
	for _, opt := range opts {
		opt(op)
	}
	return op
}

// MarshalResource serializes one entity into a resource object plus the
// related resources its include policy pulled in. entity is a registered
// struct or a pointer to one.
func (m *Mapper) MarshalResource(entity any, opts ...MarshalOption) (*wire.Resource, []*wire.Resource, error) {
	op := m.newMarshalOp(opts)
	v, c, err := m.entityValue(entity)
	if err != nil {
		return nil, nil, err
	}
	if err := op.seed(v, c); err != nil {
		return nil, nil, err
	}
	res, err := op.resource(v, c, op.include)
	if err != nil {
		return nil, nil, err
	}
	return res, op.included.ordered(), nil
}

// MarshalOne serializes one entity into a single-resource document.
func (m *Mapper) MarshalOne(entity any, opts ...MarshalOption) (*wire.Document, error) {
	op := m.newMarshalOp(opts)
	v, c, err := m.entityValue(entity)
	if err != nil {
		return nil, err
	}
	if err := op.seed(v, c); err != nil {
		return nil, err
	}
	res, err := op.resource(v, c, op.include)
	if err != nil {
		return nil, err
	}
	doc := &wire.Document{Data: []*wire.Resource{res}}
	op.decorate(doc)
	return doc, nil
}

// MarshalMany serializes a slice of entities into a collection document.
// All roots share one identity map, so an entity related to several roots
// is included once, and cross-references between roots stay references.
func (m *Mapper) MarshalMany(entities any, opts ...MarshalOption) (*wire.Document, error) {
	op := m.newMarshalOp(opts)
	list := reflect.ValueOf(entities)
	if list.Kind() == reflect.Ptr {
		list = list.Elem()
	}
	if !list.IsValid() || (list.Kind() != reflect.Slice && list.Kind() != reflect.Array) {
		return nil, fmt.Errorf("marshal many: expected a slice, got %T", entities)
	}

	type root struct {
		v reflect.Value
		c *Contract
	}
	roots := make([]root, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		v, c, err := m.entityValue(list.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		if err := op.seed(v, c); err != nil {
			return nil, err
		}
		roots = append(roots, root{v: v, c: c})
	}

	doc := &wire.Document{Many: true, Data: make([]*wire.Resource, 0, len(roots))}
	for _, rt := range roots {
		res, err := op.resource(rt.v, rt.c, op.include)
		if err != nil {
			return nil, err
		}
		doc.Data = append(doc.Data, res)
	}
	op.decorate(doc)
	return doc, nil
}

// entityValue unwraps an entity to its struct value and resolves its
// contract.
func (m *Mapper) entityValue(entity any) (reflect.Value, *Contract, error) {
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, nil, fmt.Errorf("marshal: nil entity")
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return reflect.Value{}, nil, fmt.Errorf("marshal: nil entity")
	}
	c, err := m.reg.ContractFor(v.Type())
	if err != nil {
		return reflect.Value{}, nil, err
	}
	return v, c, nil
}

// seed marks a root entity's identifier as emitted so traversal never
// duplicates a primary resource into included.
func (op *marshalOp) seed(v reflect.Value, c *Contract) error {
	id, present, err := idToWire(c.ID, v)
	if err != nil {
		return err
	}
	if present {
		op.visited[wire.Identifier{Type: c.ResourceType, ID: id}] = true
	}
	return nil
}

// resource builds the resource object for one entity, descending the
// include tree for its relationships.
func (op *marshalOp) resource(v reflect.Value, c *Contract, inc *params.IncludeSet) (*wire.Resource, error) {
	res := &wire.Resource{Type: c.ResourceType}
	id, present, err := idToWire(c.ID, v)
	if err != nil {
		return nil, err
	}
	if present {
		res.ID = id
	}

	for _, a := range c.Attributes {
		if !op.fields.Allows(c.ResourceType, a.Name) {
			continue
		}
		fv := a.Get(v)
		if a.OmitEmpty && fv.IsZero() {
			continue
		}
		val, err := toWire(fv)
		if err != nil {
			return nil, err
		}
		res.Attributes = append(res.Attributes, wire.Attr{Name: a.Name, Value: val})
	}

	for _, rel := range c.Relationships {
		if !op.fields.Allows(c.ResourceType, rel.Name) {
			continue
		}
		entry, present, err := op.relationship(v, rel, inc)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		res.Relationships = append(res.Relationships, wire.Rel{Name: rel.Name, Relationship: *entry})
	}
	return res, nil
}

// relationship builds one relationship member and, when the include policy
// opts it in, serializes the related entities into the identity map.
func (op *marshalOp) relationship(v reflect.Value, rel *Relationship, inc *params.IncludeSet) (*wire.Relationship, bool, error) {
	fv := rel.Get(v)
	follow := inc.Has(rel.Name)
	sub := inc.Child(rel.Name)

	if rel.ToMany {
		if fv.IsNil() && rel.OmitEmpty {
			return nil, false, nil
		}
		entry := &wire.Relationship{ToMany: true, Data: make([]wire.Identifier, 0, fv.Len())}
		for i := 0; i < fv.Len(); i++ {
			item := fv.Index(i)
			if item.IsNil() {
				op.m.log.Debug("skipping nil element in to-many relationship", "relationship", rel.Name)
				continue
			}
			ident, target, err := op.identify(rel, item)
			if err != nil {
				return nil, false, err
			}
			entry.Data = append(entry.Data, ident)
			if follow {
				if err := op.includeEntity(item.Elem(), target, ident, sub); err != nil {
					return nil, false, err
				}
			}
		}
		return entry, true, nil
	}

	if fv.IsNil() {
		if rel.OmitEmpty {
			return nil, false, nil
		}
		return &wire.Relationship{}, true, nil
	}
	ident, target, err := op.identify(rel, fv)
	if err != nil {
		return nil, false, err
	}
	if follow {
		if err := op.includeEntity(fv.Elem(), target, ident, sub); err != nil {
			return nil, false, err
		}
	}
	return &wire.Relationship{Data: []wire.Identifier{ident}}, true, nil
}

// identify resolves the target contract and computes the identifier a
// related entity is referenced by. Related entities must already carry an
// id; nothing here assigns one.
func (op *marshalOp) identify(rel *Relationship, ptr reflect.Value) (wire.Identifier, *Contract, error) {
	target, err := rel.Target()
	if err != nil {
		return wire.Identifier{}, nil, err
	}
	id, present, err := idToWire(target.ID, ptr.Elem())
	if err != nil {
		return wire.Identifier{}, nil, err
	}
	if !present {
		return wire.Identifier{}, nil, &wire.RelationshipResolutionError{
			Relationship: rel.Name,
			Reason:       fmt.Sprintf("related %s has no id", target.ResourceType),
		}
	}
	return wire.Identifier{Type: target.ResourceType, ID: id}, target, nil
}

// includeEntity serializes a related entity into the identity map unless
// its identifier was already emitted, which also breaks reference cycles.
func (op *marshalOp) includeEntity(v reflect.Value, c *Contract, ident wire.Identifier, inc *params.IncludeSet) error {
	if op.visited[ident] {
		return nil
	}
	op.visited[ident] = true
	res, err := op.resource(v, c, inc)
	if err != nil {
		return err
	}
	op.included.put(ident, res)
	return nil
}

// decorate attaches the operation's accumulated includes and the document
// options.
func (op *marshalOp) decorate(doc *wire.Document) {
	if op.included.len() > 0 {
		doc.Included = op.included.ordered()
	}
	doc.Links = op.links
	doc.Meta = op.meta
}
