package wire

import (
	"fmt"
	"sort"
	"strconv"
)

// Identifier names a resource on the wire: a type name plus a string id.
// It is comparable so it can key dedup tables directly.
type Identifier struct {
	// Type is the resource type name.
	Type string
	// ID is the wire identifier. Always a string on the wire.
	ID string
}

// String formats the identifier for error messages and logs.
func (id Identifier) String() string {
	return id.Type + "/" + id.ID
}

// Relationship is the linkage of one relationship member.
type Relationship struct {
	// ToMany distinguishes a collection linkage from a single one. An empty
	// Data slice on a to-one relationship is an explicit null.
	ToMany bool
	// Data holds the linked identifiers: at most one for to-one
	// relationships, any number for to-many.
	Data []Identifier
}

// First returns the single linked identifier of a to-one relationship.
func (r *Relationship) First() (Identifier, bool) {
	if r.ToMany || len(r.Data) == 0 {
		return Identifier{}, false
	}
	return r.Data[0], true
}

// Attr is one named attribute value. Resources keep attributes as an ordered
// slice so rendering does not depend on map iteration order.
type Attr struct {
	Name  string
	Value Val
}

// Rel is one named relationship entry.
type Rel struct {
	Name string
	Relationship
}

// Resource is a single resource object.
type Resource struct {
	// Type is the resource type name. Never empty on a parsed resource.
	Type string
	// ID is the wire id. Empty means the id member is absent, as on a
	// resource created before the server assigns one.
	ID string
	// Attributes holds the attribute members in emission order.
	Attributes []Attr
	// Relationships holds the relationship members in emission order.
	Relationships []Rel
}

// Identifier returns the resource's identifier.
func (r *Resource) Identifier() Identifier {
	return Identifier{Type: r.Type, ID: r.ID}
}

// Attribute returns the attribute named name and whether it is present.
func (r *Resource) Attribute(name string) (Val, bool) {
	for _, a := range r.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Relationship returns the relationship named name and whether it is present.
func (r *Resource) Relationship(name string) (*Relationship, bool) {
	for i := range r.Relationships {
		if r.Relationships[i].Name == name {
			return &r.Relationships[i].Relationship, true
		}
	}
	return nil, false
}

// ErrorObject is one entry of a document's errors member.
type ErrorObject struct {
	ID     string
	Status string
	Code   string
	Title  string
	Detail string
	// SourcePointer is a JSON pointer into the offending document.
	SourcePointer string
	// SourceParameter names the offending query parameter.
	SourceParameter string
}

// Links is the links member: link names to URLs. Link objects with an href
// collapse to their href on parse.
type Links map[string]string

// Meta is a free-form meta member.
type Meta map[string]Val

// Document is a complete top-level document.
type Document struct {
	// Data holds the primary resources. A nil slice with Many false means
	// the document carries no primary data (error documents) or carried an
	// explicit null.
	Data []*Resource
	// Many records whether data is a collection. An empty collection still
	// renders as an array.
	Many bool
	// Included holds the side-loaded resources in emission order.
	Included []*Resource
	Errors   []*ErrorObject
	Links    Links
	Meta     Meta
}

// One returns the single primary resource of a non-collection document.
func (d *Document) One() (*Resource, bool) {
	if d.Many || len(d.Data) == 0 {
		return nil, false
	}
	return d.Data[0], true
}

// HasData reports whether the document carries primary data. An empty
// collection counts as data.
func (d *Document) HasData() bool {
	return d.Many || len(d.Data) > 0
}

// ErrorDocument wraps error objects as a top-level document.
func ErrorDocument(errs ...*ErrorObject) *Document {
	return &Document{Errors: errs}
}

// --- Parsing ---

// ParseDocument interprets a parsed value tree as a top-level document. The
// root must be an object carrying at least one of data, errors, or meta.
// Parsing is tolerant where real producers are sloppy (numeric ids,
// relationship entries without linkage) and strict about structure
// everywhere else.
func ParseDocument(v Val) (*Document, error) {
	root, ok := v.(Obj)
	if !ok {
		return nil, &MalformedDocumentError{Reason: fmt.Sprintf("document root must be an object, got %s", valKind(v))}
	}
	doc := &Document{}
	present := false
	if raw, ok := root.Get("data"); ok {
		present = true
		switch data := raw.(type) {
		case Null:
			// explicit empty to-one primary data
		case Obj:
			res, err := parseResource(data)
			if err != nil {
				return nil, err
			}
			doc.Data = []*Resource{res}
		case Arr:
			doc.Many = true
			doc.Data = make([]*Resource, 0, len(data))
			for _, item := range data {
				obj, ok := item.(Obj)
				if !ok {
					return nil, &MalformedDocumentError{Reason: fmt.Sprintf("data entry must be an object, got %s", valKind(item))}
				}
				res, err := parseResource(obj)
				if err != nil {
					return nil, err
				}
				doc.Data = append(doc.Data, res)
			}
		default:
			return nil, &MalformedDocumentError{Reason: fmt.Sprintf("data must be an object, an array, or null, got %s", valKind(raw))}
		}
	}
	if raw, ok := root.Get("included"); ok {
		arr, ok := raw.(Arr)
		if !ok {
			return nil, &MalformedDocumentError{Reason: fmt.Sprintf("included must be an array, got %s", valKind(raw))}
		}
		doc.Included = make([]*Resource, 0, len(arr))
		for _, item := range arr {
			obj, ok := item.(Obj)
			if !ok {
				return nil, &MalformedDocumentError{Reason: fmt.Sprintf("included entry must be an object, got %s", valKind(item))}
			}
			res, err := parseResource(obj)
			if err != nil {
				return nil, err
			}
			doc.Included = append(doc.Included, res)
		}
	}
	if raw, ok := root.Get("errors"); ok {
		present = true
		arr, ok := raw.(Arr)
		if !ok {
			return nil, &MalformedDocumentError{Reason: fmt.Sprintf("errors must be an array, got %s", valKind(raw))}
		}
		doc.Errors = make([]*ErrorObject, 0, len(arr))
		for _, item := range arr {
			obj, ok := item.(Obj)
			if !ok {
				return nil, &MalformedDocumentError{Reason: fmt.Sprintf("errors entry must be an object, got %s", valKind(item))}
			}
			doc.Errors = append(doc.Errors, parseErrorObject(obj))
		}
	}
	if raw, ok := root.Get("links"); ok {
		doc.Links = parseLinks(raw)
	}
	if raw, ok := root.Get("meta"); ok {
		present = true
		obj, ok := raw.(Obj)
		if !ok {
			return nil, &MalformedDocumentError{Reason: fmt.Sprintf("meta must be an object, got %s", valKind(raw))}
		}
		doc.Meta = Meta(obj)
	}
	if !present {
		return nil, &MalformedDocumentError{Reason: "document must contain data, errors, or meta"}
	}
	return doc, nil
}

// ParseDocumentBytes parses JSON bytes straight into a document.
func ParseDocumentBytes(data []byte) (*Document, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return ParseDocument(v)
}

func parseResource(obj Obj) (*Resource, error) {
	rawType, ok := obj.Get("type")
	if !ok {
		return nil, &MalformedDocumentError{Reason: "resource object missing type"}
	}
	typeName, ok := rawType.(Str)
	if !ok || typeName == "" {
		return nil, &MalformedDocumentError{Reason: "resource type must be a non-empty string"}
	}
	res := &Resource{Type: string(typeName)}
	if raw, ok := obj.Get("id"); ok {
		id, err := wireID(raw)
		if err != nil {
			return nil, err
		}
		res.ID = id
	}
	if raw, ok := obj.Get("attributes"); ok {
		attrs, ok := raw.(Obj)
		if !ok {
			return nil, &MalformedDocumentError{Reason: fmt.Sprintf("attributes must be an object, got %s", valKind(raw))}
		}
		for _, name := range sortedKeys(attrs) {
			res.Attributes = append(res.Attributes, Attr{Name: name, Value: attrs[name]})
		}
	}
	if raw, ok := obj.Get("relationships"); ok {
		rels, ok := raw.(Obj)
		if !ok {
			return nil, &MalformedDocumentError{Reason: fmt.Sprintf("relationships must be an object, got %s", valKind(raw))}
		}
		for _, name := range sortedKeys(rels) {
			rel, linked, err := parseRelationship(name, rels[name])
			if err != nil {
				return nil, err
			}
			if !linked {
				continue
			}
			res.Relationships = append(res.Relationships, Rel{Name: name, Relationship: *rel})
		}
	}
	return res, nil
}

// wireID normalizes an id member. String ids are canonical; numeric ids from
// sloppy producers are stringified rather than rejected.
func wireID(v Val) (string, error) {
	switch id := v.(type) {
	case Str:
		return string(id), nil
	case Int:
		return strconv.FormatInt(int64(id), 10), nil
	case Num:
		return strconv.FormatFloat(float64(id), 'f', -1, 64), nil
	}
	return "", &MalformedDocumentError{Reason: fmt.Sprintf("resource id must be a string, got %s", valKind(v))}
}

// parseRelationship reads one relationship member. Entries carrying only
// links or meta have no linkage to map; they report linked false and are
// skipped by the caller.
func parseRelationship(name string, v Val) (rel *Relationship, linked bool, err error) {
	obj, ok := v.(Obj)
	if !ok {
		return nil, false, &MalformedDocumentError{Reason: fmt.Sprintf("relationship %q must be an object, got %s", name, valKind(v))}
	}
	raw, ok := obj.Get("data")
	if !ok {
		return nil, false, nil
	}
	rel = &Relationship{}
	switch data := raw.(type) {
	case Null:
		// explicit empty to-one
	case Obj:
		ident, err := parseIdentifier(name, data)
		if err != nil {
			return nil, false, err
		}
		rel.Data = []Identifier{ident}
	case Arr:
		rel.ToMany = true
		rel.Data = make([]Identifier, 0, len(data))
		for _, item := range data {
			entry, ok := item.(Obj)
			if !ok {
				return nil, false, &RelationshipResolutionError{Relationship: name, Reason: fmt.Sprintf("linkage entry must be an object, got %s", valKind(item))}
			}
			ident, err := parseIdentifier(name, entry)
			if err != nil {
				return nil, false, err
			}
			rel.Data = append(rel.Data, ident)
		}
	default:
		return nil, false, &RelationshipResolutionError{Relationship: name, Reason: fmt.Sprintf("linkage must be an object, an array, or null, got %s", valKind(raw))}
	}
	return rel, true, nil
}

func parseIdentifier(relName string, obj Obj) (Identifier, error) {
	rawType, ok := obj.Get("type")
	if !ok {
		return Identifier{}, &RelationshipResolutionError{Relationship: relName, Reason: "resource identifier missing type"}
	}
	typeName, ok := rawType.(Str)
	if !ok || typeName == "" {
		return Identifier{}, &RelationshipResolutionError{Relationship: relName, Reason: "resource identifier type must be a non-empty string"}
	}
	rawID, ok := obj.Get("id")
	if !ok {
		return Identifier{}, &RelationshipResolutionError{Relationship: relName, Reason: "resource identifier missing id"}
	}
	id, err := wireID(rawID)
	if err != nil || id == "" {
		return Identifier{}, &RelationshipResolutionError{Relationship: relName, Reason: "resource identifier id must be a non-empty string"}
	}
	return Identifier{Type: string(typeName), ID: id}, nil
}

// parseErrorObject reads one errors entry. Error objects are advisory, so
// unrecognized or oddly typed members are dropped rather than rejected.
func parseErrorObject(obj Obj) *ErrorObject {
	eo := &ErrorObject{
		ID:     strMember(obj, "id"),
		Status: strMember(obj, "status"),
		Code:   strMember(obj, "code"),
		Title:  strMember(obj, "title"),
		Detail: strMember(obj, "detail"),
	}
	if raw, ok := obj.Get("source"); ok {
		if src, ok := raw.(Obj); ok {
			eo.SourcePointer = strMember(src, "pointer")
			eo.SourceParameter = strMember(src, "parameter")
		}
	}
	return eo
}

// strMember reads a string-ish member, stringifying numbers the way ids are.
func strMember(obj Obj, key string) string {
	raw, ok := obj.Get(key)
	if !ok {
		return ""
	}
	s, err := wireID(raw)
	if err != nil {
		return ""
	}
	return s
}

func parseLinks(v Val) Links {
	obj, ok := v.(Obj)
	if !ok {
		return nil
	}
	links := make(Links, len(obj))
	for name, raw := range obj {
		switch link := raw.(type) {
		case Str:
			links[name] = string(link)
		case Obj:
			if href, ok := link.Get("href"); ok {
				if s, ok := href.(Str); ok {
					links[name] = string(s)
				}
			}
		}
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

func sortedKeys(obj Obj) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// --- Tree conversion ---

// Val converts the document into a generic value tree, for transports that
// splice documents into larger payloads. Member presence follows the same
// rules as Render; ordering is left to the tree's consumer.
func (d *Document) Val() Val {
	root := Obj{}
	switch {
	case d.HasData():
		if d.Many {
			arr := make(Arr, 0, len(d.Data))
			for _, res := range d.Data {
				arr = append(arr, res.Val())
			}
			root["data"] = arr
		} else {
			root["data"] = d.Data[0].Val()
		}
	case len(d.Errors) == 0 && len(d.Meta) == 0:
		root["data"] = Null{}
	}
	if len(d.Errors) > 0 {
		arr := make(Arr, 0, len(d.Errors))
		for _, eo := range d.Errors {
			arr = append(arr, eo.Val())
		}
		root["errors"] = arr
	}
	if len(d.Included) > 0 {
		arr := make(Arr, 0, len(d.Included))
		for _, res := range d.Included {
			arr = append(arr, res.Val())
		}
		root["included"] = arr
	}
	if len(d.Links) > 0 {
		links := make(Obj, len(d.Links))
		for name, url := range d.Links {
			links[name] = Str(url)
		}
		root["links"] = links
	}
	if len(d.Meta) > 0 {
		root["meta"] = Obj(d.Meta)
	}
	return root
}

// Val converts the resource into a generic value tree.
func (r *Resource) Val() Val {
	obj := Obj{"type": Str(r.Type)}
	if r.ID != "" {
		obj["id"] = Str(r.ID)
	}
	if len(r.Attributes) > 0 {
		attrs := make(Obj, len(r.Attributes))
		for _, a := range r.Attributes {
			if a.Value == nil {
				attrs[a.Name] = Null{}
				continue
			}
			attrs[a.Name] = a.Value
		}
		obj["attributes"] = attrs
	}
	if len(r.Relationships) > 0 {
		rels := make(Obj, len(r.Relationships))
		for i := range r.Relationships {
			rels[r.Relationships[i].Name] = r.Relationships[i].Relationship.Val()
		}
		obj["relationships"] = rels
	}
	return obj
}

// Val converts the relationship into a generic value tree.
func (r *Relationship) Val() Val {
	var data Val
	switch {
	case r.ToMany:
		arr := make(Arr, 0, len(r.Data))
		for _, ident := range r.Data {
			arr = append(arr, ident.Val())
		}
		data = arr
	case len(r.Data) == 0:
		data = Null{}
	default:
		data = r.Data[0].Val()
	}
	return Obj{"data": data}
}

// Val converts the identifier into a generic value tree.
func (id Identifier) Val() Val {
	return Obj{"type": Str(id.Type), "id": Str(id.ID)}
}

// Val converts the error object into a generic value tree, dropping empty
// members.
func (e *ErrorObject) Val() Val {
	obj := Obj{}
	if e.ID != "" {
		obj["id"] = Str(e.ID)
	}
	if e.Status != "" {
		obj["status"] = Str(e.Status)
	}
	if e.Code != "" {
		obj["code"] = Str(e.Code)
	}
	if e.Title != "" {
		obj["title"] = Str(e.Title)
	}
	if e.Detail != "" {
		obj["detail"] = Str(e.Detail)
	}
	if e.SourcePointer != "" || e.SourceParameter != "" {
		src := Obj{}
		if e.SourcePointer != "" {
			src["pointer"] = Str(e.SourcePointer)
		}
		if e.SourceParameter != "" {
			src["parameter"] = Str(e.SourceParameter)
		}
		obj["source"] = src
	}
	return obj
}
