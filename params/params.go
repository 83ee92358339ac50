// Package params parses JSON:API fetch parameters: include paths opting
// related resources into a compound document, and sparse fieldsets
// restricting which fields serialize per resource type. The parsed forms
// feed the serializer as its inclusion policy and field filter.
package params

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// --- Participle grammar structs ---

// includeExpr parses a comma-separated list of include paths.
type includeExpr struct {
	Paths []*includePath `parser:"( @@ ( ',' @@ )* )?"`
}

// includePath parses one dot-separated relationship path: author.comments
type includePath struct {
	Segments []string `parser:"@Ident ( '.' @Ident )*"`
}

// fieldsKey parses a bracketed fields parameter key: fields[articles]
type fieldsKey struct {
	Type string `parser:"'fields' '[' @Ident ']'"`
}

// fieldList parses a comma-separated field name list: title,body
type fieldList struct {
	Names []string `parser:"( @Ident ( ',' @Ident )* )?"`
}

var paramLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "Ident", Pattern: `[a-zA-Z0-9_][a-zA-Z0-9_-]*`},
	{Name: "Punct", Pattern: `[.,\[\]]`},
})

var (
	includeParser = participle.MustBuild[includeExpr](
		participle.Lexer(paramLexer),
		participle.Elide("Whitespace"),
	)
	fieldsKeyParser = participle.MustBuild[fieldsKey](
		participle.Lexer(paramLexer),
		participle.Elide("Whitespace"),
	)
	fieldListParser = participle.MustBuild[fieldList](
		participle.Lexer(paramLexer),
		participle.Elide("Whitespace"),
	)
)

// --- Include paths ---

// IncludeSet is a tree of relationship names opted into inclusion. The zero
// value and nil both mean nothing is opted in.
type IncludeSet struct {
	children map[string]*IncludeSet
}

// ParseInclude parses an include expression such as "author.comments,editor"
// into a path tree. Every prefix of a path is opted in, so including
// author.comments also includes author. An empty expression yields an empty
// set.
func ParseInclude(expr string) (*IncludeSet, error) {
	set := &IncludeSet{}
	if strings.TrimSpace(expr) == "" {
		return set, nil
	}
	ast, err := includeParser.ParseString("include", expr)
	if err != nil {
		return nil, fmt.Errorf("parse include: %w", err)
	}
	for _, path := range ast.Paths {
		set.add(path.Segments)
	}
	return set, nil
}

func (s *IncludeSet) add(segments []string) {
	node := s
	for _, seg := range segments {
		if node.children == nil {
			node.children = make(map[string]*IncludeSet)
		}
		child, ok := node.children[seg]
		if !ok {
			child = &IncludeSet{}
			node.children[seg] = child
		}
		node = child
	}
}

// Has reports whether the relationship named name is opted in at this level.
func (s *IncludeSet) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.children[name]
	return ok
}

// Child returns the nested include set under name, or nil when the path
// stops here.
func (s *IncludeSet) Child(name string) *IncludeSet {
	if s == nil {
		return nil
	}
	return s.children[name]
}

// IsEmpty reports whether nothing is opted in at this level.
func (s *IncludeSet) IsEmpty() bool {
	return s == nil || len(s.children) == 0
}

// Paths flattens the set back into sorted dot paths, one per leaf.
func (s *IncludeSet) Paths() []string {
	if s == nil {
		return nil
	}
	var out []string
	var walk func(prefix string, node *IncludeSet)
	walk = func(prefix string, node *IncludeSet) {
		names := make([]string, 0, len(node.children))
		for name := range node.children {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			child := node.children[name]
			path := name
			if prefix != "" {
				path = prefix + "." + name
			}
			if len(child.children) == 0 {
				out = append(out, path)
			} else {
				walk(path, child)
			}
		}
	}
	walk("", s)
	return out
}

// --- Sparse fieldsets ---

// Fieldset restricts which fields serialize per resource type. A type with
// no entry is unrestricted; a type with an entry emits only the named
// attributes and relationships, so an empty entry suppresses all fields.
type Fieldset map[string][]string

// Allows reports whether the field named name may serialize for typeName.
func (f Fieldset) Allows(typeName, name string) bool {
	if f == nil {
		return true
	}
	names, ok := f[typeName]
	if !ok {
		return true
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// ParseFieldsKey extracts the resource type from a bracketed fields
// parameter key such as "fields[articles]".
func ParseFieldsKey(key string) (string, error) {
	ast, err := fieldsKeyParser.ParseString("fields", key)
	if err != nil {
		return "", fmt.Errorf("parse fields key %q: %w", key, err)
	}
	return ast.Type, nil
}

// ParseFieldList splits a fields parameter value such as "title,body".
func ParseFieldList(value string) ([]string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	ast, err := fieldListParser.ParseString("fields", value)
	if err != nil {
		return nil, fmt.Errorf("parse field list %q: %w", value, err)
	}
	return ast.Names, nil
}

// FromQuery reads the include and fields parameters out of decoded query
// values. Types listed more than once accumulate their field names.
func FromQuery(q url.Values) (*IncludeSet, Fieldset, error) {
	include := &IncludeSet{}
	if expr := q.Get("include"); expr != "" {
		parsed, err := ParseInclude(expr)
		if err != nil {
			return nil, nil, err
		}
		include = parsed
	}
	var fields Fieldset
	for key, values := range q {
		if !strings.HasPrefix(key, "fields[") {
			continue
		}
		typeName, err := ParseFieldsKey(key)
		if err != nil {
			return nil, nil, err
		}
		if fields == nil {
			fields = make(Fieldset)
		}
		names := fields[typeName]
		for _, value := range values {
			list, err := ParseFieldList(value)
			if err != nil {
				return nil, nil, err
			}
			names = append(names, list...)
		}
		fields[typeName] = names
	}
	return include, fields, nil
}
