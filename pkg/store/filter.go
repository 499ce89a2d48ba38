package store

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Op is a condition operator.
type Op int

const (
	// OpEq matches when the attribute equals the value.
	OpEq Op = iota
	// OpHas matches when the attribute is an array containing the value.
	OpHas
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpHas:
		return "has"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Cond is one attribute condition.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction; the empty filter matches everything.
type Filter []Cond

func Eq(field string, v any) Cond  { return Cond{Field: field, Op: OpEq, Value: v} }
func Has(field string, v any) Cond { return Cond{Field: field, Op: OpHas, Value: v} }

func Where(conds ...Cond) Filter { return Filter(conds) }

// Match evaluates f against a raw JSON object. Values are compared after a
// JSON round-trip so that Go values and decoded documents agree on types.
func (f Filter) Match(doc []byte) (bool, error) {
	if len(f) == 0 {
		return true, nil
	}
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return false, fmt.Errorf("store: decode document: %w", err)
	}
	for _, c := range f {
		want, err := normalize(c.Value)
		if err != nil {
			return false, err
		}
		got, ok := m[c.Field]
		if !ok {
			return false, nil
		}
		switch c.Op {
		case OpEq:
			if !reflect.DeepEqual(got, want) {
				return false, nil
			}
		case OpHas:
			arr, ok := got.([]any)
			if !ok || !containsValue(arr, want) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("store: unsupported operator %s", c.Op)
		}
	}
	return true, nil
}

// JSONValue encodes a condition value the way it appears inside documents.
func JSONValue(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("store: encode value: %w", err)
	}
	return string(b), nil
}

func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func containsValue(arr []any, want any) bool {
	for _, x := range arr {
		if reflect.DeepEqual(x, want) {
			return true
		}
	}
	return false
}
