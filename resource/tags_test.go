package resource

import "testing"

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag  string
		want FieldTag
	}{
		{"primary,comments", FieldTag{Kind: TagPrimary, Name: "comments"}},
		{"attr,text", FieldTag{Kind: TagAttr, Name: "text"}},
		{"attr,text,omitempty", FieldTag{Kind: TagAttr, Name: "text", OmitEmpty: true}},
		{"relation,author", FieldTag{Kind: TagRelation, Name: "author"}},
		{"relation,author,omitempty", FieldTag{Kind: TagRelation, Name: "author", OmitEmpty: true}},
		{"attr", FieldTag{Kind: TagAttr}},
		{"attr, spaced ", FieldTag{Kind: TagAttr, Name: "spaced"}},
		{"", FieldTag{Skip: true}},
		{"-", FieldTag{Skip: true}},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseTag(tt.tag)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseTag_Errors(t *testing.T) {
	tests := []string{
		"bogus,x",
		"attr,name,bogus",
		"primary,comments,omitempty",
	}
	for _, tag := range tests {
		t.Run(tag, func(t *testing.T) {
			if _, err := ParseTag(tag); err == nil {
				t.Errorf("expected error for %q", tag)
			}
		})
	}
}

func TestValidMemberName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"text", true},
		{"first-name", true},
		{"first_name", true},
		{"a", true},
		{"9lives", true},
		{"", false},
		{"-leading", false},
		{"trailing-", false},
		{"_leading", false},
		{"has space", false},
		{"dotted.name", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validMemberName(tt.name); got != tt.want {
				t.Errorf("validMemberName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
