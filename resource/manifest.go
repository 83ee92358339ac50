// Package resource provides declarative contract manifests.
package resource

import (
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Manifest is the root of a YAML contract declaration. It binds wire names
// to struct fields from the outside, so third-party structs can be
// registered without tags, and tagged structs can be rebound without
// touching their source.
type Manifest struct {
	// Version of the manifest schema.
	Version string `yaml:"version,omitempty"`

	// Resources lists per-model binding declarations.
	Resources []ManifestResource `yaml:"resources"`
}

// ManifestResource declares the contract binding for one model.
type ManifestResource struct {
	// Model is the Go struct name the declaration applies to.
	Model string `yaml:"model"`

	// Type is the wire resource type. Empty falls back to the tag-declared
	// type, or to the kebab-cased struct name.
	Type string `yaml:"type,omitempty"`

	// ID names the struct field holding the primary identifier.
	ID string `yaml:"id,omitempty"`

	// Attributes declare or override attribute bindings, keyed by field
	// name. A declaration replaces whatever the field's tag says.
	Attributes []ManifestField `yaml:"attributes,omitempty"`

	// Relationships declare or override relationship bindings, keyed by
	// field name.
	Relationships []ManifestField `yaml:"relationships,omitempty"`
}

// ManifestField declares the binding for one struct field.
type ManifestField struct {
	// Field is the Go field name.
	Field string `yaml:"field"`

	// Name is the wire member name. Empty falls back to the kebab-cased
	// field name.
	Name string `yaml:"name,omitempty"`

	// OmitEmpty drops the member when the field holds its zero value.
	OmitEmpty bool `yaml:"omitempty,omitempty"`

	// Skip removes the field from the contract entirely.
	Skip bool `yaml:"skip,omitempty"`
}

// ParseManifest parses YAML data into a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Version == "" {
		m.Version = "1"
	}
	return &m, nil
}

// LoadManifest reads and parses a manifest from r.
func LoadManifest(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// Resource returns the declaration whose model matches the given struct
// name.
func (m *Manifest) Resource(model string) (*ManifestResource, bool) {
	for i := range m.Resources {
		if m.Resources[i].Model == model {
			return &m.Resources[i], true
		}
	}
	return nil, false
}

// RegisterWithManifest registers T using the manifest declaration whose
// model matches the struct name, overlaying the declaration on whatever
// tags the struct carries.
func RegisterWithManifest[T any](r *Registry, m *Manifest) error {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Errorf("register: interface types cannot be registered")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	mr, ok := m.Resource(t.Name())
	if !ok {
		return fmt.Errorf("register: manifest has no declaration for %s", t.Name())
	}
	if err := mr.validate(t); err != nil {
		return fmt.Errorf("registering %s: %w", t.Name(), err)
	}
	return r.register(t, mr)
}

// validate checks that the declaration names only fields the struct
// actually has.
func (mr *ManifestResource) validate(t reflect.Type) error {
	if mr.ID != "" && !hasOwnField(t, mr.ID) {
		return fmt.Errorf("manifest names unknown id field %s", mr.ID)
	}
	for _, f := range mr.Attributes {
		if f.Field == "" {
			return fmt.Errorf("manifest attribute entry is missing a field name")
		}
		if !hasOwnField(t, f.Field) {
			return fmt.Errorf("manifest names unknown field %s", f.Field)
		}
	}
	for _, f := range mr.Relationships {
		if f.Field == "" {
			return fmt.Errorf("manifest relationship entry is missing a field name")
		}
		if !hasOwnField(t, f.Field) {
			return fmt.Errorf("manifest names unknown field %s", f.Field)
		}
	}
	return nil
}

// apply overlays this declaration on one field's tag-derived binding.
// A manifest entry for a field wins over the field's own tag.
func (mr *ManifestResource) apply(fieldName string, tag FieldTag) FieldTag {
	if tag.Kind == TagPrimary {
		switch {
		case mr.ID != "" && mr.ID != fieldName:
			// The declaration moves the id to another field; this one only
			// stays in the contract if declared as attribute or relationship.
			tag = FieldTag{Skip: true}
		case mr.Type != "":
			tag.Name = ""
		}
	}
	if mr.ID == fieldName {
		return FieldTag{Kind: TagPrimary}
	}
	if f := findManifestField(mr.Attributes, fieldName); f != nil {
		if f.Skip {
			return FieldTag{Skip: true}
		}
		return FieldTag{Kind: TagAttr, Name: f.Name, OmitEmpty: f.OmitEmpty}
	}
	if f := findManifestField(mr.Relationships, fieldName); f != nil {
		if f.Skip {
			return FieldTag{Skip: true}
		}
		return FieldTag{Kind: TagRelation, Name: f.Name, OmitEmpty: f.OmitEmpty}
	}
	return tag
}

func findManifestField(fields []ManifestField, name string) *ManifestField {
	for i := range fields {
		if fields[i].Field == name {
			return &fields[i]
		}
	}
	return nil
}

// hasOwnField reports whether t declares the named exported field itself,
// not through embedding.
func hasOwnField(t reflect.Type, name string) bool {
	f, ok := t.FieldByName(name)
	return ok && f.IsExported() && len(f.Index) == 1
}
