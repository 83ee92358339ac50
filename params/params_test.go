package params

import (
	"net/url"
	"reflect"
	"testing"
)

func TestParseInclude(t *testing.T) {
	set, err := ParseInclude("author.comments,editor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.IsEmpty() {
		t.Fatal("IsEmpty: got true, want false")
	}
	if !set.Has("author") {
		t.Error("Has(author): got false, want true")
	}
	if !set.Has("editor") {
		t.Error("Has(editor): got false, want true")
	}
	if set.Has("comments") {
		t.Error("Has(comments): comments is nested under author, not top-level")
	}
	author := set.Child("author")
	if author == nil || !author.Has("comments") {
		t.Error("Child(author).Has(comments): got false, want true")
	}
	if child := set.Child("editor"); child != nil && !child.IsEmpty() {
		t.Error("Child(editor) should be a leaf")
	}

	got := set.Paths()
	want := []string{"author.comments", "editor"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Paths: got %v, want %v", got, want)
	}
}

func TestParseInclude_PrefixesMerge(t *testing.T) {
	set, err := ParseInclude("author,author.comments,author.posts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := set.Paths()
	want := []string{"author.comments", "author.posts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Paths: got %v, want %v", got, want)
	}
}

func TestParseInclude_Empty(t *testing.T) {
	for _, expr := range []string{"", "   "} {
		set, err := ParseInclude(expr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !set.IsEmpty() {
			t.Errorf("IsEmpty(%q): got false, want true", expr)
		}
	}
}

func TestParseInclude_Invalid(t *testing.T) {
	for _, expr := range []string{"author..comments", ",author", "author,", "author.", "a b"} {
		t.Run(expr, func(t *testing.T) {
			if _, err := ParseInclude(expr); err == nil {
				t.Errorf("expected error for %q", expr)
			}
		})
	}
}

func TestIncludeSet_NilSafe(t *testing.T) {
	var set *IncludeSet
	if set.Has("author") {
		t.Error("Has on nil set: got true, want false")
	}
	if set.Child("author") != nil {
		t.Error("Child on nil set: got non-nil")
	}
	if !set.IsEmpty() {
		t.Error("IsEmpty on nil set: got false, want true")
	}
	if paths := set.Paths(); paths != nil {
		t.Errorf("Paths on nil set: got %v, want nil", paths)
	}
}

func TestFieldsetAllows(t *testing.T) {
	var unrestricted Fieldset
	if !unrestricted.Allows("posts", "title") {
		t.Error("nil fieldset must allow everything")
	}

	fields := Fieldset{
		"posts": {"title", "author"},
		"tags":  {},
	}
	tests := []struct {
		typeName string
		name     string
		want     bool
	}{
		{"posts", "title", true},
		{"posts", "author", true},
		{"posts", "views", false},
		{"people", "name", true},
		{"tags", "label", false},
	}
	for _, tt := range tests {
		if got := fields.Allows(tt.typeName, tt.name); got != tt.want {
			t.Errorf("Allows(%q, %q): got %v, want %v", tt.typeName, tt.name, got, tt.want)
		}
	}
}

func TestParseFieldsKey(t *testing.T) {
	got, err := ParseFieldsKey("fields[articles]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "articles" {
		t.Errorf("got %q, want %q", got, "articles")
	}

	for _, key := range []string{"fields[]", "fields[a][b]", "pages[articles]", "fields"} {
		t.Run(key, func(t *testing.T) {
			if _, err := ParseFieldsKey(key); err == nil {
				t.Errorf("expected error for %q", key)
			}
		})
	}
}

func TestParseFieldList(t *testing.T) {
	got, err := ParseFieldList("title,body")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"title", "body"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	empty, err := ParseFieldList("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty != nil {
		t.Errorf("got %v, want nil", empty)
	}

	if _, err := ParseFieldList("title,,body"); err == nil {
		t.Error("expected error for empty list entry")
	}
}

func TestFromQuery(t *testing.T) {
	q := url.Values{
		"include":          {"author.comments"},
		"fields[posts]":    {"title,views"},
		"fields[people]":   {"name"},
		"page[size]":       {"10"},
		"sort":             {"-created"},
		"fields[articles]": {"title", "body"},
	}
	include, fields, err := FromQuery(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !include.Has("author") {
		t.Error("include.Has(author): got false, want true")
	}
	if !reflect.DeepEqual(fields["posts"], []string{"title", "views"}) {
		t.Errorf("fields[posts]: got %v", fields["posts"])
	}
	if !reflect.DeepEqual(fields["people"], []string{"name"}) {
		t.Errorf("fields[people]: got %v", fields["people"])
	}
	// Repeated keys accumulate.
	if !reflect.DeepEqual(fields["articles"], []string{"title", "body"}) {
		t.Errorf("fields[articles]: got %v", fields["articles"])
	}
	if _, ok := fields["page[size]"]; ok {
		t.Error("page parameters must not leak into the fieldset")
	}
}

func TestFromQuery_Empty(t *testing.T) {
	include, fields, err := FromQuery(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !include.IsEmpty() {
		t.Error("include should be empty")
	}
	if fields != nil {
		t.Errorf("fields: got %v, want nil", fields)
	}
}

func TestFromQuery_BadInclude(t *testing.T) {
	if _, _, err := FromQuery(url.Values{"include": {"a..b"}}); err == nil {
		t.Error("expected error for malformed include")
	}
}
