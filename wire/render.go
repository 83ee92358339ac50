package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Render encodes a document as compact JSON. Output is deterministic: the
// document members emit as data, errors, included, links, meta; resource
// members as type, id, attributes, relationships; attributes and
// relationships in their recorded order; raw object and link keys sorted.
func Render(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	r := renderer{buf: &buf}
	if err := r.document(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderIndent encodes a document as indented JSON with the same member
// order as Render. prefix and indent follow json.MarshalIndent.
func RenderIndent(d *Document, prefix, indent string) ([]byte, error) {
	compact, err := Render(d)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderer walks document nodes and emits JSON text.
type renderer struct {
	buf *bytes.Buffer
}

// --- Document ---

func (r *renderer) document(d *Document) error {
	if d == nil {
		return fmt.Errorf("render: nil document")
	}
	r.buf.WriteByte('{')
	first := true
	switch {
	case d.HasData():
		r.member(&first, "data")
		if d.Many {
			r.buf.WriteByte('[')
			for i, res := range d.Data {
				if i > 0 {
					r.buf.WriteByte(',')
				}
				if err := r.resource(res); err != nil {
					return err
				}
			}
			r.buf.WriteByte(']')
		} else if err := r.resource(d.Data[0]); err != nil {
			return err
		}
	case len(d.Errors) == 0 && len(d.Meta) == 0:
		// nothing else to carry; render explicit null data rather than an
		// empty object
		r.member(&first, "data")
		r.buf.WriteString("null")
	}
	if len(d.Errors) > 0 {
		r.member(&first, "errors")
		r.buf.WriteByte('[')
		for i, eo := range d.Errors {
			if i > 0 {
				r.buf.WriteByte(',')
			}
			if err := r.errorObject(eo); err != nil {
				return err
			}
		}
		r.buf.WriteByte(']')
	}
	if len(d.Included) > 0 {
		r.member(&first, "included")
		r.buf.WriteByte('[')
		for i, res := range d.Included {
			if i > 0 {
				r.buf.WriteByte(',')
			}
			if err := r.resource(res); err != nil {
				return err
			}
		}
		r.buf.WriteByte(']')
	}
	if len(d.Links) > 0 {
		r.member(&first, "links")
		if err := r.links(d.Links); err != nil {
			return err
		}
	}
	if len(d.Meta) > 0 {
		r.member(&first, "meta")
		if err := encodeVal(r.buf, Obj(d.Meta)); err != nil {
			return err
		}
	}
	r.buf.WriteByte('}')
	return nil
}

// --- Resources ---

func (r *renderer) resource(res *Resource) error {
	if res == nil {
		return fmt.Errorf("render: nil resource")
	}
	r.buf.WriteString(`{"type":`)
	if err := r.str(res.Type); err != nil {
		return err
	}
	if res.ID != "" {
		r.buf.WriteString(`,"id":`)
		if err := r.str(res.ID); err != nil {
			return err
		}
	}
	if len(res.Attributes) > 0 {
		r.buf.WriteString(`,"attributes":{`)
		for i, a := range res.Attributes {
			if i > 0 {
				r.buf.WriteByte(',')
			}
			if err := r.key(a.Name); err != nil {
				return err
			}
			if err := encodeVal(r.buf, a.Value); err != nil {
				return err
			}
		}
		r.buf.WriteByte('}')
	}
	if len(res.Relationships) > 0 {
		r.buf.WriteString(`,"relationships":{`)
		for i := range res.Relationships {
			if i > 0 {
				r.buf.WriteByte(',')
			}
			if err := r.key(res.Relationships[i].Name); err != nil {
				return err
			}
			if err := r.relationship(&res.Relationships[i].Relationship); err != nil {
				return err
			}
		}
		r.buf.WriteByte('}')
	}
	r.buf.WriteByte('}')
	return nil
}

func (r *renderer) relationship(rel *Relationship) error {
	r.buf.WriteString(`{"data":`)
	switch {
	case rel.ToMany:
		r.buf.WriteByte('[')
		for i, ident := range rel.Data {
			if i > 0 {
				r.buf.WriteByte(',')
			}
			if err := r.identifier(ident); err != nil {
				return err
			}
		}
		r.buf.WriteByte(']')
	case len(rel.Data) == 0:
		r.buf.WriteString("null")
	default:
		if err := r.identifier(rel.Data[0]); err != nil {
			return err
		}
	}
	r.buf.WriteByte('}')
	return nil
}

func (r *renderer) identifier(id Identifier) error {
	r.buf.WriteString(`{"type":`)
	if err := r.str(id.Type); err != nil {
		return err
	}
	r.buf.WriteString(`,"id":`)
	if err := r.str(id.ID); err != nil {
		return err
	}
	r.buf.WriteByte('}')
	return nil
}

// --- Errors, links ---

func (r *renderer) errorObject(eo *ErrorObject) error {
	if eo == nil {
		return fmt.Errorf("render: nil error object")
	}
	r.buf.WriteByte('{')
	first := true
	members := []struct {
		name  string
		value string
	}{
		{"id", eo.ID},
		{"status", eo.Status},
		{"code", eo.Code},
		{"title", eo.Title},
		{"detail", eo.Detail},
	}
	for _, m := range members {
		if m.value == "" {
			continue
		}
		r.member(&first, m.name)
		if err := r.str(m.value); err != nil {
			return err
		}
	}
	if eo.SourcePointer != "" || eo.SourceParameter != "" {
		r.member(&first, "source")
		r.buf.WriteByte('{')
		srcFirst := true
		if eo.SourcePointer != "" {
			r.member(&srcFirst, "pointer")
			if err := r.str(eo.SourcePointer); err != nil {
				return err
			}
		}
		if eo.SourceParameter != "" {
			r.member(&srcFirst, "parameter")
			if err := r.str(eo.SourceParameter); err != nil {
				return err
			}
		}
		r.buf.WriteByte('}')
	}
	r.buf.WriteByte('}')
	return nil
}

func (r *renderer) links(l Links) error {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	r.buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			r.buf.WriteByte(',')
		}
		if err := r.key(name); err != nil {
			return err
		}
		if err := r.str(l[name]); err != nil {
			return err
		}
	}
	r.buf.WriteByte('}')
	return nil
}

// --- Low-level writers ---

// member writes the separator and key for a fixed-name member.
func (r *renderer) member(first *bool, name string) {
	if !*first {
		r.buf.WriteByte(',')
	}
	*first = false
	r.buf.WriteByte('"')
	r.buf.WriteString(name)
	r.buf.WriteString(`":`)
}

// key writes a caller-supplied member name, escaped.
func (r *renderer) key(name string) error {
	if err := r.str(name); err != nil {
		return err
	}
	r.buf.WriteByte(':')
	return nil
}

func (r *renderer) str(s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.buf.Write(b)
	return nil
}
