package tendril

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// FromJSON decodes JSON bytes into the Value universe patterns match
// against. JSON has no native set type, so data never produces a KindSet
// value; object key order is not preserved by encoding/json, so decoded
// objects present their keys sorted.
func FromJSON(data []byte) (Value, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("tendril: decode JSON subject: %w", err)
	}
	return fromAny(raw), nil
}

func fromAny(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(t)
	case float64:
		return value.Number(t)
	case string:
		return value.String(t)
	case []interface{}:
		items := make([]Value, len(t))
		for i, el := range t {
			items[i] = fromAny(el)
		}
		return value.Array(items)
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		vals := make(map[string]Value, len(t))
		for k, v := range t {
			vals[k] = fromAny(v)
		}
		return value.Obj(value.NewObject(keys, vals))
	default:
		return value.Null
	}
}

// ToJSON renders a Value back into a json.Marshal-compatible interface{}
// tree. A KindSet value marshals as a JSON array in member order, since
// JSON has no set literal.
func ToJSON(v Value) interface{} {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.AsBool()
	case value.KindNumber:
		return v.AsNumber()
	case value.KindString:
		return v.AsString()
	case value.KindArray:
		arr := v.AsArray()
		out := make([]interface{}, len(arr))
		for i, el := range arr {
			out[i] = ToJSON(el)
		}
		return out
	case value.KindSet:
		members := v.AsSet()
		out := make([]interface{}, len(members))
		for i, el := range members {
			out[i] = ToJSON(el)
		}
		return out
	case value.KindObject:
		obj := v.AsObject()
		out := make(map[string]interface{}, obj.Len())
		for _, k := range obj.Keys() {
			val, _ := obj.Get(k)
			out[k] = ToJSON(val)
		}
		return out
	default:
		return nil
	}
}
