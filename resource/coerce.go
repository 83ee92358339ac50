// Package resource provides value coercion between wire values and Go fields.
package resource

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/CaliLuke/go-jsonapi/wire"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// timeLayouts are the accepted attribute time formats, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// --- Wire to Go ---

// fromWire coerces a wire value into a value of type t. Null becomes the
// zero value (nil for pointers); pointer targets allocate and recurse.
// target labels the failing slot in errors, as resource-type.field.
func fromWire(target string, val wire.Val, t reflect.Type) (reflect.Value, error) {
	if val == nil {
		val = wire.Null{}
	}
	if _, isNull := val.(wire.Null); isNull {
		return reflect.Zero(t), nil
	}
	if t.Kind() == reflect.Ptr {
		elem, err := fromWire(target, val, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}
	switch t {
	case timeType:
		return coerceToTime(target, val)
	case uuidType:
		return coerceToUUID(target, val)
	}
	switch t.Kind() {
	case reflect.String:
		s, ok := val.(wire.Str)
		if !ok {
			return reflect.Value{}, coercionFailed(target, val, t, nil)
		}
		return reflect.ValueOf(string(s)).Convert(t), nil
	case reflect.Bool:
		b, ok := val.(wire.Bool)
		if !ok {
			return reflect.Value{}, coercionFailed(target, val, t, nil)
		}
		return reflect.ValueOf(bool(b)).Convert(t), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return coerceToInt(target, val, t)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return coerceToUint(target, val, t)
	case reflect.Float32, reflect.Float64:
		return coerceToFloat(target, val, t)
	default:
		return coerceComposite(target, val, t)
	}
}

func coerceToInt(target string, val wire.Val, t reflect.Type) (reflect.Value, error) {
	var i64 int64
	switch v := val.(type) {
	case wire.Int:
		i64 = int64(v)
	case wire.Num:
		i64 = int64(v)
	default:
		return reflect.Value{}, coercionFailed(target, val, t, nil)
	}
	out := reflect.New(t).Elem()
	if out.OverflowInt(i64) {
		return reflect.Value{}, coercionFailed(target, val, t, fmt.Errorf("value overflows %s", t.Kind()))
	}
	out.SetInt(i64)
	return out, nil
}

func coerceToUint(target string, val wire.Val, t reflect.Type) (reflect.Value, error) {
	var u64 uint64
	switch v := val.(type) {
	case wire.Int:
		if v < 0 {
			return reflect.Value{}, coercionFailed(target, val, t, fmt.Errorf("negative value"))
		}
		u64 = uint64(v)
	case wire.Num:
		if v < 0 {
			return reflect.Value{}, coercionFailed(target, val, t, fmt.Errorf("negative value"))
		}
		u64 = uint64(v)
	default:
		return reflect.Value{}, coercionFailed(target, val, t, nil)
	}
	out := reflect.New(t).Elem()
	if out.OverflowUint(u64) {
		return reflect.Value{}, coercionFailed(target, val, t, fmt.Errorf("value overflows %s", t.Kind()))
	}
	out.SetUint(u64)
	return out, nil
}

func coerceToFloat(target string, val wire.Val, t reflect.Type) (reflect.Value, error) {
	var f64 float64
	switch v := val.(type) {
	case wire.Int:
		f64 = float64(v)
	case wire.Num:
		f64 = float64(v)
	default:
		return reflect.Value{}, coercionFailed(target, val, t, nil)
	}
	out := reflect.New(t).Elem()
	if out.OverflowFloat(f64) {
		return reflect.Value{}, coercionFailed(target, val, t, fmt.Errorf("value overflows %s", t.Kind()))
	}
	out.SetFloat(f64)
	return out, nil
}

func coerceToTime(target string, val wire.Val) (reflect.Value, error) {
	s, ok := val.(wire.Str)
	if !ok {
		return reflect.Value{}, coercionFailed(target, val, timeType, nil)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, string(s)); err == nil {
			return reflect.ValueOf(t), nil
		}
	}
	return reflect.Value{}, coercionFailed(target, val, timeType, fmt.Errorf("unrecognized time format %q", string(s)))
}

func coerceToUUID(target string, val wire.Val) (reflect.Value, error) {
	s, ok := val.(wire.Str)
	if !ok {
		return reflect.Value{}, coercionFailed(target, val, uuidType, nil)
	}
	u, err := uuid.Parse(string(s))
	if err != nil {
		return reflect.Value{}, coercionFailed(target, val, uuidType, err)
	}
	return reflect.ValueOf(u), nil
}

// coerceComposite handles struct, map, slice, and array targets by rendering
// the wire value back to JSON and decoding through encoding/json, so the
// target's own json tags hold.
func coerceComposite(target string, val wire.Val, t reflect.Type) (reflect.Value, error) {
	data, err := wire.EncodeVal(val)
	if err != nil {
		return reflect.Value{}, coercionFailed(target, val, t, err)
	}
	out := reflect.New(t)
	if err := json.Unmarshal(data, out.Interface()); err != nil {
		return reflect.Value{}, coercionFailed(target, val, t, err)
	}
	return out.Elem(), nil
}

func coercionFailed(target string, val wire.Val, want reflect.Type, cause error) error {
	return &TypeCoercionError{Target: target, Value: val, Want: want, Cause: cause}
}

// --- Go to wire ---

// toWire carries a Go field value onto the wire. Nil pointers become null;
// time and uuid values render as strings; composites round-trip through
// encoding/json.
func toWire(v reflect.Value) (wire.Val, error) {
	if !v.IsValid() {
		return wire.Null{}, nil
	}
	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return wire.Null{}, nil
		}
		return toWire(v.Elem())
	}
	switch v.Type() {
	case timeType:
		return wire.Str(v.Interface().(time.Time).Format(time.RFC3339)), nil
	case uuidType:
		return wire.Str(v.Interface().(uuid.UUID).String()), nil
	}
	switch v.Kind() {
	case reflect.String:
		return wire.Str(v.String()), nil
	case reflect.Bool:
		return wire.Bool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return wire.Int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return wire.Num(float64(u)), nil
		}
		return wire.Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return wire.Num(v.Float()), nil
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		return compositeToWire(v)
	default:
		return nil, &UnresolvedContractError{GoType: v.Type()}
	}
}

func compositeToWire(v reflect.Value) (wire.Val, error) {
	data, err := json.Marshal(v.Interface())
	if err != nil {
		return nil, &UnresolvedContractError{GoType: v.Type(), Cause: err}
	}
	return wire.Parse(data)
}

// --- Identifiers ---

// idToWire formats an entity's id field as its wire string. present is
// false when the field holds the type's absence marker (its zero value).
func idToWire(f *IDField, entity reflect.Value) (id string, present bool, err error) {
	v := f.Get(entity)
	if v.IsZero() {
		return "", false, nil
	}
	if v.Type() == uuidType {
		return v.Interface().(uuid.UUID).String(), true, nil
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true, nil
	}
	return "", false, &UnresolvedContractError{GoType: v.Type()}
}

// idFromWire coerces a wire id string into the contract's id field type.
func idFromWire(c *Contract, id string) (reflect.Value, error) {
	t := c.ID.Type
	target := c.ResourceType + ".id"
	if t == uuidType {
		u, err := uuid.Parse(id)
		if err != nil {
			return reflect.Value{}, &TypeCoercionError{Target: target, Value: id, Want: t, Cause: err}
		}
		return reflect.ValueOf(u), nil
	}
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(id).Convert(t), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return reflect.Value{}, &TypeCoercionError{Target: target, Value: id, Want: t, Cause: err}
		}
		out := reflect.New(t).Elem()
		if out.OverflowInt(i) {
			return reflect.Value{}, &TypeCoercionError{Target: target, Value: id, Want: t, Cause: fmt.Errorf("value overflows %s", t.Kind())}
		}
		out.SetInt(i)
		return out, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return reflect.Value{}, &TypeCoercionError{Target: target, Value: id, Want: t, Cause: err}
		}
		out := reflect.New(t).Elem()
		if out.OverflowUint(u) {
			return reflect.Value{}, &TypeCoercionError{Target: target, Value: id, Want: t, Cause: fmt.Errorf("value overflows %s", t.Kind())}
		}
		out.SetUint(u)
		return out, nil
	}
	return reflect.Value{}, &TypeCoercionError{Target: target, Value: id, Want: t}
}
