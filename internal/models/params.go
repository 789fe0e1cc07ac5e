package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
)

// ParamKind enumerates the closed set of value types a param may hold.
type ParamKind int

const (
	ParamNull ParamKind = iota
	ParamString
	ParamNumber
	ParamBool
)

// ParamValue is a scalar param value: string, number, bool or null.
// Nested objects and arrays are rejected at decode time so that
// serialization stays deterministic.
type ParamValue struct {
	Kind ParamKind
	Str  string
	Num  float64
	Bool bool
}

func StringParam(s string) ParamValue  { return ParamValue{Kind: ParamString, Str: s} }
func NumberParam(n float64) ParamValue { return ParamValue{Kind: ParamNumber, Num: n} }
func BoolParam(b bool) ParamValue      { return ParamValue{Kind: ParamBool, Bool: b} }
func NullParam() ParamValue            { return ParamValue{Kind: ParamNull} }

// Native returns the value as the corresponding Go primitive, suitable for
// BSON encoding.
func (v ParamValue) Native() interface{} {
	switch v.Kind {
	case ParamString:
		return v.Str
	case ParamNumber:
		return v.Num
	case ParamBool:
		return v.Bool
	default:
		return nil
	}
}

// paramValueFrom coerces a decoded scalar into a ParamValue. It accepts the
// types produced by encoding/json (with UseNumber) and by the bson decoder.
func paramValueFrom(raw interface{}) (ParamValue, error) {
	switch val := raw.(type) {
	case nil:
		return NullParam(), nil
	case string:
		return StringParam(val), nil
	case bool:
		return BoolParam(val), nil
	case float64:
		return NumberParam(val), nil
	case int32:
		return NumberParam(float64(val)), nil
	case int64:
		return NumberParam(float64(val)), nil
	case json.Number:
		f, err := strconv.ParseFloat(val.String(), 64)
		if err != nil {
			return ParamValue{}, fmt.Errorf("param value %q is not a number", val.String())
		}
		return NumberParam(f), nil
	default:
		return ParamValue{}, fmt.Errorf("param value must be a string, number, boolean or null, got %T", raw)
	}
}

func (v ParamValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

// ParamField is one key/value pair of a ParamMap.
type ParamField struct {
	Key   string
	Value ParamValue
}

// ParamMap is an insertion-ordered mapping of string keys to scalar values.
// It serializes as a JSON object and a BSON document with keys in order.
type ParamMap []ParamField

// Get returns the value for key, if present.
func (m ParamMap) Get(key string) (ParamValue, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return ParamValue{}, false
}

func (m ParamMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *ParamMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("params must be a JSON object")
	}

	out := ParamMap{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		if _, nested := valTok.(json.Delim); nested {
			return fmt.Errorf("param %q must be a scalar value", key)
		}
		val, err := paramValueFrom(valTok)
		if err != nil {
			return fmt.Errorf("param %q: %w", key, err)
		}
		out = append(out, ParamField{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}
	*m = out
	return nil
}

func (m ParamMap) MarshalBSON() ([]byte, error) {
	doc := make(bson.D, 0, len(m))
	for _, f := range m {
		doc = append(doc, bson.E{Key: f.Key, Value: f.Value.Native()})
	}
	return bson.Marshal(doc)
}

func (m *ParamMap) UnmarshalBSON(data []byte) error {
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := make(ParamMap, 0, len(doc))
	for _, e := range doc {
		val, err := paramValueFrom(e.Value)
		if err != nil {
			return fmt.Errorf("param %q: %w", e.Key, err)
		}
		out = append(out, ParamField{Key: e.Key, Value: val})
	}
	*m = out
	return nil
}
