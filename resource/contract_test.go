package resource

import (
	"errors"
	"reflect"
	"testing"
)

func TestContract_Post(t *testing.T) {
	r := newTestRegistry(t)
	c, err := r.ContractFor(reflect.TypeOf(Post{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.ResourceType != "posts" {
		t.Errorf("ResourceType: got %q, want %q", c.ResourceType, "posts")
	}
	if c.ID == nil || c.ID.FieldName != "ID" {
		t.Fatalf("ID field: got %+v, want field ID", c.ID)
	}
	if len(c.Attributes) != 2 {
		t.Fatalf("Attributes: got %d, want 2", len(c.Attributes))
	}
	if c.Attributes[0].Name != "title" || c.Attributes[1].Name != "views" {
		t.Errorf("attribute order: got %q, %q", c.Attributes[0].Name, c.Attributes[1].Name)
	}
	if !c.Attributes[1].OmitEmpty {
		t.Error("views should carry omitempty")
	}
	if len(c.Relationships) != 2 {
		t.Fatalf("Relationships: got %d, want 2", len(c.Relationships))
	}
	author := c.Relationships[0]
	if author.Name != "author" || author.ToMany {
		t.Errorf("author: got name %q ToMany %v", author.Name, author.ToMany)
	}
	comments := c.Relationships[1]
	if comments.Name != "comments" || !comments.ToMany {
		t.Errorf("comments: got name %q ToMany %v", comments.Name, comments.ToMany)
	}

	if _, ok := c.Attribute("title"); !ok {
		t.Error("Attribute(title) missing")
	}
	if _, ok := c.Attribute("author"); ok {
		t.Error("Attribute(author) should miss: author is a relationship")
	}
	if _, ok := c.Relationship("comments"); !ok {
		t.Error("Relationship(comments) missing")
	}
}

type Memo struct {
	ID        int    `jsonapi:"primary"`
	BodyText  string `jsonapi:"attr"`
	ShortCode string `jsonapi:"attr,,omitempty"`
}

func TestContract_DerivedNames(t *testing.T) {
	r := NewRegistry()
	if err := Register[Memo](r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, err := r.ContractFor(reflect.TypeOf(&Memo{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ResourceType != "memo" {
		t.Errorf("ResourceType: got %q, want %q", c.ResourceType, "memo")
	}
	if c.Attributes[0].Name != "body-text" {
		t.Errorf("attribute name: got %q, want %q", c.Attributes[0].Name, "body-text")
	}
	if c.Attributes[1].Name != "short-code" || !c.Attributes[1].OmitEmpty {
		t.Errorf("attribute: got %q omitempty=%v", c.Attributes[1].Name, c.Attributes[1].OmitEmpty)
	}
}

func TestBuildContract_Errors(t *testing.T) {
	type NoPrimary struct {
		Name string `jsonapi:"attr,name"`
	}
	type TwoPrimaries struct {
		A int `jsonapi:"primary,things"`
		B int `jsonapi:"primary,things"`
	}
	type FloatID struct {
		ID float64 `jsonapi:"primary,floats"`
	}
	type DupName struct {
		ID    int    `jsonapi:"primary,dups"`
		A     string `jsonapi:"attr,same"`
		Other *Memo  `jsonapi:"relation,same"`
	}
	type BadRelation struct {
		ID     int    `jsonapi:"primary,bads"`
		Target string `jsonapi:"relation,target"`
	}
	type SliceOfValues struct {
		ID      int    `jsonapi:"primary,svs"`
		Targets []Memo `jsonapi:"relation,targets"`
	}
	type BadMemberName struct {
		ID   int    `jsonapi:"primary,bmns"`
		Name string `jsonapi:"attr,-bad-"`
	}

	tests := []struct {
		name     string
		register func(r *Registry) error
	}{
		{"no primary", func(r *Registry) error { return Register[NoPrimary](r) }},
		{"two primaries", func(r *Registry) error { return Register[TwoPrimaries](r) }},
		{"float id", func(r *Registry) error { return Register[FloatID](r) }},
		{"duplicate wire name", func(r *Registry) error { return Register[DupName](r) }},
		{"relation on string", func(r *Registry) error { return Register[BadRelation](r) }},
		{"slice of values", func(r *Registry) error { return Register[SliceOfValues](r) }},
		{"bad member name", func(r *Registry) error { return Register[BadMemberName](r) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.register(NewRegistry()); err == nil {
				t.Error("expected registration to fail")
			}
		})
	}
}

func TestContract_UnexportedAndSkippedFields(t *testing.T) {
	type Sparse struct {
		ID      int    `jsonapi:"primary,sparses"`
		Visible string `jsonapi:"attr,visible"`
		hidden  string `jsonapi:"attr,hidden"`
		Ignored string `jsonapi:"-"`
		Plain   string
	}
	r := NewRegistry()
	if err := Register[Sparse](r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, err := r.ContractFor(reflect.TypeOf(Sparse{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Attributes) != 1 {
		t.Fatalf("Attributes: got %d, want 1", len(c.Attributes))
	}
	if c.Attributes[0].Name != "visible" {
		t.Errorf("attribute: got %q, want %q", c.Attributes[0].Name, "visible")
	}
}

func TestRelationshipTarget_Lazy(t *testing.T) {
	r := NewRegistry()
	MustRegister[Post](r)

	c, err := r.ContractFor(reflect.TypeOf(Post{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rel, _ := c.Relationship("author")

	// The target type is not registered yet; resolution fails but does not
	// poison the binding.
	if _, err := rel.Target(); err == nil {
		t.Fatal("expected resolution to fail before Author is registered")
	} else {
		var resErr *ContractResolutionError
		if !errors.As(err, &resErr) {
			t.Fatalf("got %T, want ContractResolutionError", err)
		}
	}

	MustRegister[Author](r)
	target, err := rel.Target()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.ResourceType != "people" {
		t.Errorf("target: got %q, want %q", target.ResourceType, "people")
	}

	// Memoized: the same contract comes back.
	again, err := rel.Target()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != target {
		t.Error("Target should memoize the resolved contract")
	}
}

func TestContract_New(t *testing.T) {
	r := newTestRegistry(t)
	c, err := r.ContractByName("comments")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inst := c.New()
	if _, ok := inst.Interface().(*Comment); !ok {
		t.Fatalf("New: got %T, want *Comment", inst.Interface())
	}
}

func TestToKebabCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Person", "person"},
		{"UserAccount", "user-account"},
		{"BlogPost", "blog-post"},
		{"ABC", "a-b-c"},
		{"simple", "simple"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := toKebabCase(tt.input)
			if got != tt.want {
				t.Errorf("toKebabCase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
