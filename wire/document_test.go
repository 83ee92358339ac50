package wire

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDocumentBytes_SingleResource(t *testing.T) {
	payload := `{
		"data": {
			"type": "posts",
			"id": "1",
			"attributes": {"title": "First post", "views": 42},
			"relationships": {
				"author": {"data": {"type": "people", "id": "9"}},
				"comments": {"data": [{"type": "comments", "id": "5"}, {"type": "comments", "id": "12"}]}
			}
		}
	}`
	doc, err := ParseDocumentBytes([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Many {
		t.Error("Many: got true, want false")
	}
	res, ok := doc.One()
	if !ok {
		t.Fatal("expected a primary resource")
	}
	if res.Type != "posts" {
		t.Errorf("Type: got %q, want %q", res.Type, "posts")
	}
	if res.ID != "1" {
		t.Errorf("ID: got %q, want %q", res.ID, "1")
	}

	title, ok := res.Attribute("title")
	if !ok || title != Str("First post") {
		t.Errorf("title: got %#v, want Str(First post)", title)
	}
	views, ok := res.Attribute("views")
	if !ok || views != Int(42) {
		t.Errorf("views: got %#v, want Int(42)", views)
	}

	author, ok := res.Relationship("author")
	if !ok {
		t.Fatal("author relationship missing")
	}
	ident, ok := author.First()
	if !ok {
		t.Fatal("author linkage missing")
	}
	if ident != (Identifier{Type: "people", ID: "9"}) {
		t.Errorf("author: got %v, want people/9", ident)
	}

	comments, ok := res.Relationship("comments")
	if !ok {
		t.Fatal("comments relationship missing")
	}
	if !comments.ToMany {
		t.Error("comments.ToMany: got false, want true")
	}
	if len(comments.Data) != 2 {
		t.Fatalf("comments: got %d linked, want 2", len(comments.Data))
	}
	if comments.Data[1] != (Identifier{Type: "comments", ID: "12"}) {
		t.Errorf("comments[1]: got %v, want comments/12", comments.Data[1])
	}
}

func TestParseDocumentBytes_NumericID(t *testing.T) {
	doc, err := ParseDocumentBytes([]byte(`{"data":{"type":"comments","id":42}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, _ := doc.One()
	if res.ID != "42" {
		t.Errorf("ID: got %q, want %q", res.ID, "42")
	}
}

func TestParseDocument_RootNotObject(t *testing.T) {
	for _, payload := range []string{`[]`, `"data"`, `42`, `null`} {
		t.Run(payload, func(t *testing.T) {
			_, err := ParseDocumentBytes([]byte(payload))
			var malformed *MalformedDocumentError
			if !errors.As(err, &malformed) {
				t.Errorf("got %v, want MalformedDocumentError", err)
			}
		})
	}
}

func TestParseDocument_MissingMembers(t *testing.T) {
	_, err := ParseDocumentBytes([]byte(`{"jsonapi":{"version":"1.1"}}`))
	var malformed *MalformedDocumentError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedDocumentError", err)
	}
	if !strings.Contains(err.Error(), "data, errors, or meta") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestParseDocument_NullData(t *testing.T) {
	doc, err := ParseDocumentBytes([]byte(`{"data":null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.HasData() {
		t.Error("HasData: got true, want false")
	}
	if doc.Many {
		t.Error("Many: got true, want false")
	}
	if _, ok := doc.One(); ok {
		t.Error("One should report no resource")
	}
}

func TestParseDocument_Collection(t *testing.T) {
	doc, err := ParseDocumentBytes([]byte(`{"data":[{"type":"posts","id":"1"},{"type":"posts","id":"2"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Many {
		t.Error("Many: got false, want true")
	}
	if len(doc.Data) != 2 {
		t.Fatalf("Data: got %d, want 2", len(doc.Data))
	}
	if _, ok := doc.One(); ok {
		t.Error("One should report no resource for collections")
	}
}

func TestParseDocument_EmptyCollection(t *testing.T) {
	doc, err := ParseDocumentBytes([]byte(`{"data":[]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Many {
		t.Error("Many: got false, want true")
	}
	if !doc.HasData() {
		t.Error("HasData: an empty collection still carries data")
	}
}

func TestParseDocument_ResourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing type", `{"data":{"id":"1"}}`},
		{"empty type", `{"data":{"type":"","id":"1"}}`},
		{"type not string", `{"data":{"type":7,"id":"1"}}`},
		{"boolean id", `{"data":{"type":"posts","id":true}}`},
		{"attributes not object", `{"data":{"type":"posts","attributes":[]}}`},
		{"data entry not object", `{"data":["posts"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocumentBytes([]byte(tt.payload))
			var malformed *MalformedDocumentError
			if !errors.As(err, &malformed) {
				t.Errorf("got %v, want MalformedDocumentError", err)
			}
		})
	}
}

func TestParseRelationship_UnlinkedSkipped(t *testing.T) {
	payload := `{"data":{"type":"posts","id":"1","relationships":{
		"author": {"links": {"related": "/posts/1/author"}},
		"comments": {"data": []}
	}}}`
	doc, err := ParseDocumentBytes([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, _ := doc.One()
	if _, ok := res.Relationship("author"); ok {
		t.Error("author carries no linkage and should be skipped")
	}
	comments, ok := res.Relationship("comments")
	if !ok {
		t.Fatal("comments relationship missing")
	}
	if !comments.ToMany || len(comments.Data) != 0 {
		t.Errorf("comments: got ToMany=%v len=%d, want empty to-many", comments.ToMany, len(comments.Data))
	}
}

func TestParseRelationship_NullToOne(t *testing.T) {
	payload := `{"data":{"type":"posts","id":"1","relationships":{"author":{"data":null}}}}`
	doc, err := ParseDocumentBytes([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, _ := doc.One()
	author, ok := res.Relationship("author")
	if !ok {
		t.Fatal("author relationship missing: explicit null is still defined")
	}
	if author.ToMany {
		t.Error("ToMany: got true, want false")
	}
	if _, ok := author.First(); ok {
		t.Error("First should report no identifier for explicit null")
	}
}

func TestParseIdentifier_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing id", `{"data":{"type":"posts","id":"1","relationships":{"author":{"data":{"type":"people"}}}}}`},
		{"missing type", `{"data":{"type":"posts","id":"1","relationships":{"author":{"data":{"id":"9"}}}}}`},
		{"empty id", `{"data":{"type":"posts","id":"1","relationships":{"author":{"data":{"type":"people","id":""}}}}}`},
		{"linkage not object", `{"data":{"type":"posts","id":"1","relationships":{"author":{"data":"people"}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocumentBytes([]byte(tt.payload))
			var relErr *RelationshipResolutionError
			if !errors.As(err, &relErr) {
				t.Fatalf("got %v, want RelationshipResolutionError", err)
			}
			if relErr.Relationship != "author" {
				t.Errorf("Relationship: got %q, want %q", relErr.Relationship, "author")
			}
		})
	}
}

func TestParseErrorObject_Lenient(t *testing.T) {
	payload := `{"errors":[
		{"status": 422, "title": "Invalid Attribute", "source": {"pointer": "/data/attributes/title"}},
		{"detail": "boom", "code": null}
	]}`
	doc, err := ParseDocumentBytes([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Errors) != 2 {
		t.Fatalf("Errors: got %d, want 2", len(doc.Errors))
	}
	first := doc.Errors[0]
	if first.Status != "422" {
		t.Errorf("Status: got %q, want %q", first.Status, "422")
	}
	if first.Title != "Invalid Attribute" {
		t.Errorf("Title: got %q, want %q", first.Title, "Invalid Attribute")
	}
	if first.SourcePointer != "/data/attributes/title" {
		t.Errorf("SourcePointer: got %q, want %q", first.SourcePointer, "/data/attributes/title")
	}
	second := doc.Errors[1]
	if second.Detail != "boom" {
		t.Errorf("Detail: got %q, want %q", second.Detail, "boom")
	}
	if second.Code != "" {
		t.Errorf("Code: got %q, want empty", second.Code)
	}
}

func TestParseLinks(t *testing.T) {
	payload := `{"meta":{"count":1},"links":{
		"self": "/posts",
		"next": {"href": "/posts?page=2", "meta": {"total": 9}},
		"broken": 7
	}}`
	doc, err := ParseDocumentBytes([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Links["self"] != "/posts" {
		t.Errorf("self: got %q, want %q", doc.Links["self"], "/posts")
	}
	if doc.Links["next"] != "/posts?page=2" {
		t.Errorf("next: got %q, want %q", doc.Links["next"], "/posts?page=2")
	}
	if _, ok := doc.Links["broken"]; ok {
		t.Error("broken link should be dropped")
	}
}

func TestParseDocument_Meta(t *testing.T) {
	doc, err := ParseDocumentBytes([]byte(`{"meta":{"count":3}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.HasData() {
		t.Error("HasData: got true, want false")
	}
	if doc.Meta["count"] != Int(3) {
		t.Errorf("count: got %#v, want Int(3)", doc.Meta["count"])
	}
}

func TestDocumentVal_RoundTrip(t *testing.T) {
	payload := `{"data":{"type":"posts","id":"1","attributes":{"title":"x"},"relationships":{"author":{"data":{"type":"people","id":"9"}}}},"included":[{"type":"people","id":"9"}],"links":{"self":"/posts/1"},"meta":{"n":1}}`
	doc, err := ParseDocumentBytes([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := ParseDocument(doc.Val())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, err := Render(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Render(back)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("round trip changed rendering:\n a: %s\n b: %s", a, b)
	}
}

func TestErrorDocument(t *testing.T) {
	doc := ErrorDocument(&ErrorObject{Status: "404", Title: "Not Found"})
	if doc.HasData() {
		t.Error("HasData: got true, want false")
	}
	if len(doc.Errors) != 1 {
		t.Fatalf("Errors: got %d, want 1", len(doc.Errors))
	}
}
