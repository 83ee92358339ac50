// Package wire models JSON:API documents as typed nodes: a generic value
// tree for attribute payloads and structured nodes for resources,
// identifiers, relationships, and error objects. Parsing tolerates the
// irregularities of real producers; rendering is strict and deterministic.
//
// The package deliberately owns no JSON tokenizer. encoding/json decodes
// incoming bytes into the value tree and encodes scalars on the way out;
// everything between those two edges works on typed nodes.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Val is a parsed JSON value. The implementations form the closed set Null,
// Str, Int, Num, Bool, Arr, and Obj; the unexported method keeps the set
// closed so consumers can type-switch exhaustively.
type Val interface {
	val()
}

// Null is the JSON null literal.
type Null struct{}

// Str is a JSON string.
type Str string

// Int is a JSON number without a fractional part, held as int64 so integer
// identifiers and counters survive round-trips exactly.
type Int int64

// Num is a JSON number with a fractional part, or one outside the int64
// range.
type Num float64

// Bool is a JSON boolean.
type Bool bool

// Arr is a JSON array.
type Arr []Val

// Obj is a JSON object. Go map iteration order is not meaningful; encoding
// sorts keys so output stays deterministic.
type Obj map[string]Val

func (Null) val() {}
func (Str) val()  {}
func (Int) val()  {}
func (Num) val()  {}
func (Bool) val() {}
func (Arr) val()  {}
func (Obj) val()  {}

// Get returns the member named key and whether it is present.
func (o Obj) Get(key string) (Val, bool) {
	v, ok := o[key]
	return v, ok
}

// --- Parsing ---

// Parse decodes JSON bytes into a value tree. Numbers decode int64-first so
// integral values become Int and only fractional or oversized values become
// Num. Invalid JSON yields a MalformedDocumentError.
func Parse(data []byte) (Val, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a single JSON value from r.
func Decode(r io.Reader) (Val, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &MalformedDocumentError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return fromGo(raw)
}

// fromGo converts a decoded interface tree into value nodes. It accepts the
// shapes produced by encoding/json as well as the wider numeric and map
// types binary codecs hand back.
func fromGo(raw any) (Val, error) {
	switch v := raw.(type) {
	case nil:
		return Null{}, nil
	case string:
		return Str(v), nil
	case bool:
		return Bool(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, &MalformedDocumentError{Reason: fmt.Sprintf("unrepresentable number %q", v.String())}
		}
		return Num(f), nil
	case int:
		return Int(v), nil
	case int8:
		return Int(v), nil
	case int16:
		return Int(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case uint:
		return Int(v), nil
	case uint8:
		return Int(v), nil
	case uint16:
		return Int(v), nil
	case uint32:
		return Int(v), nil
	case uint64:
		return Int(v), nil
	case float32:
		return Num(v), nil
	case float64:
		if v == float64(int64(v)) {
			return Int(int64(v)), nil
		}
		return Num(v), nil
	case []any:
		arr := make(Arr, 0, len(v))
		for _, item := range v {
			node, err := fromGo(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, node)
		}
		return arr, nil
	case map[string]any:
		obj := make(Obj, len(v))
		for key, item := range v {
			node, err := fromGo(item)
			if err != nil {
				return nil, err
			}
			obj[key] = node
		}
		return obj, nil
	case map[any]any:
		obj := make(Obj, len(v))
		for key, item := range v {
			name, ok := key.(string)
			if !ok {
				return nil, &MalformedDocumentError{Reason: fmt.Sprintf("object key must be a string, got %T", key)}
			}
			node, err := fromGo(item)
			if err != nil {
				return nil, err
			}
			obj[name] = node
		}
		return obj, nil
	default:
		return nil, &MalformedDocumentError{Reason: fmt.Sprintf("unsupported value type %T", raw)}
	}
}

// toGo converts a value tree back into plain Go values for codecs that
// marshal interface trees.
func toGo(v Val) any {
	switch n := v.(type) {
	case nil, Null:
		return nil
	case Str:
		return string(n)
	case Int:
		return int64(n)
	case Num:
		return float64(n)
	case Bool:
		return bool(n)
	case Arr:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = toGo(item)
		}
		return out
	case Obj:
		out := make(map[string]any, len(n))
		for key, item := range n {
			out[key] = toGo(item)
		}
		return out
	}
	return nil
}

// --- Encoding ---

// EncodeVal renders a value tree as compact JSON with object keys sorted.
// The same bytes come back for the same tree regardless of map iteration
// order.
func EncodeVal(v Val) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeVal(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeVal(buf *bytes.Buffer, v Val) error {
	switch n := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Str:
		b, err := json.Marshal(string(n))
		if err != nil {
			return err
		}
		buf.Write(b)
	case Int:
		buf.WriteString(strconv.FormatInt(int64(n), 10))
	case Num:
		b, err := json.Marshal(float64(n))
		if err != nil {
			return err
		}
		buf.Write(b)
	case Bool:
		if n {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Arr:
		buf.WriteByte('[')
		for i, item := range n {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeVal(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Obj:
		keys := make([]string, 0, len(n))
		for key := range n {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeVal(buf, n[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value node type: %T", v)
	}
	return nil
}

// valKind names a node's JSON kind for error messages.
func valKind(v Val) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case Str:
		return "string"
	case Int, Num:
		return "number"
	case Bool:
		return "boolean"
	case Arr:
		return "array"
	case Obj:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
