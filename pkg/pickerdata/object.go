package pickerdata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Object is an insertion-ordered JSON object.
//
// Key order survives decode, mutation, and encode, which matters because tab
// order and button field order are semantically significant in picker data.
// Values are one of: nil, bool, json.Number, string, Array, *Object.
type Object struct {
	keys  []string
	items map[string]any
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{items: make(map[string]any)}
}

// Array is an ordered JSON array value.
type Array []any

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}

	return len(o.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}

	out := make([]string, len(o.keys))
	copy(out, o.keys)

	return out
}

// Get returns the value for key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}

	v, ok := o.items[key]

	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)

	return ok
}

// Set stores value under key. New keys append to the end of the order;
// existing keys keep their position.
func (o *Object) Set(key string, value any) {
	if o.items == nil {
		o.items = make(map[string]any)
	}

	if _, ok := o.items[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.items[key] = value
}

// Delete removes key, preserving the order of the remaining keys.
func (o *Object) Delete(key string) {
	if o == nil {
		return
	}

	if _, ok := o.items[key]; !ok {
		return
	}

	delete(o.items, key)

	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)

			break
		}
	}
}

// GetString returns the string value for key, or fallback if absent or not
// a string.
func (o *Object) GetString(key, fallback string) string {
	v, ok := o.Get(key)
	if !ok {
		return fallback
	}

	s, ok := v.(string)
	if !ok {
		return fallback
	}

	return s
}

// GetNumber returns the numeric value for key, or fallback if absent or not
// a number.
func (o *Object) GetNumber(key string, fallback float64) float64 {
	v, ok := o.Get(key)
	if !ok {
		return fallback
	}

	f, ok := numberValue(v)
	if !ok {
		return fallback
	}

	return f
}

// GetBool returns the boolean value for key, or fallback if absent or not
// a bool.
func (o *Object) GetBool(key string, fallback bool) bool {
	v, ok := o.Get(key)
	if !ok {
		return fallback
	}

	b, ok := v.(bool)
	if !ok {
		return fallback
	}

	return b
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}

	out := &Object{
		keys:  make([]string, len(o.keys)),
		items: make(map[string]any, len(o.items)),
	}
	copy(out.keys, o.keys)

	for k, v := range o.items {
		out.items[k] = cloneValue(v)
	}

	return out
}

// Equal reports structural equality, including key order.
func (o *Object) Equal(other *Object) bool {
	a, err := json.Marshal(o)
	if err != nil {
		return false
	}

	b, err := json.Marshal(other)
	if err != nil {
		return false
	}

	return bytes.Equal(a, b)
}

// MarshalJSON encodes the object with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		buf.Write(name)
		buf.WriteByte(':')

		value, err := json.Marshal(o.items[k])
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}

		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order. Numbers decode
// as json.Number so their literal form survives a round trip.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return err
	}

	obj, ok := v.(*Object)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", v)
	}

	*o = *obj

	return nil
}

// decodeValue reads one JSON value from dec, returning *Object for objects
// and Array for arrays.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()

			for dec.More() {
				keyTok, keyErr := dec.Token()
				if keyErr != nil {
					return nil, keyErr
				}

				key, keyOK := keyTok.(string)
				if !keyOK {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}

				value, valErr := decodeValue(dec)
				if valErr != nil {
					return nil, valErr
				}

				obj.Set(key, value)
			}

			// Consume closing '}'
			_, err = dec.Token()
			if err != nil {
				return nil, err
			}

			return obj, nil
		case '[':
			arr := Array{}

			for dec.More() {
				value, valErr := decodeValue(dec)
				if valErr != nil {
					return nil, valErr
				}

				arr = append(arr, value)
			}

			// Consume closing ']'
			_, err = dec.Token()
			if err != nil {
				return nil, err
			}

			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	default:
		return tok, nil
	}
}

// cloneValue deep-copies a decoded JSON value.
func cloneValue(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Clone()
	case Array:
		out := make(Array, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}

		return out
	default:
		// nil, bool, string, json.Number, float64: immutable, copy by value.
		return v
	}
}

// numberValue extracts a float64 from a decoded numeric value.
func numberValue(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}

		return f, true
	case float64:
		return t, true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
