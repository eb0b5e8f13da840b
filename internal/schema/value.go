package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"georecords/internal/domain"
)

/********** shape views over untyped input **********/

// asObject views v as a string-keyed object. Typed records are flattened back
// into their untyped form so normalized output can be validated again.
func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return t, true
	}
	if m, ok := recordTree(v); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, ok := stringKey(iter.Key())
		if !ok {
			return nil, false
		}
		out[k] = iter.Value().Interface()
	}
	return out, true
}

// stringKey accepts string keys, and interface keys holding strings (YAML mappings).
func stringKey(k reflect.Value) (string, bool) {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "", false
		}
		k = k.Elem()
	}
	if k.Kind() != reflect.String {
		return "", false
	}
	return k.String(), true
}

// asSequence views v as an ordered sequence.
func asSequence(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []any:
		return t, true
	case string, json.Number:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return nil, false
		}
	case reflect.Array:
	default:
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return "", false
	}
	rv := reflect.ValueOf(v)
	if v != nil && rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// asInt64 accepts any numeric kind whose value is integral and fits in int64.
// reason is set when v is a number that is not an acceptable integer.
func asInt64(v any) (n int64, reason string, ok bool) {
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		if err == nil {
			return i, "", true
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, "out of int64 range: " + t.String(), false
		}
		f, err := t.Float64()
		if err != nil {
			return 0, "malformed number " + t.String(), false
		}
		return fromFloat(f)
	case float64:
		return fromFloat(t)
	case float32:
		return fromFloat(float64(t))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), "", true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, "out of int64 range: " + strconv.FormatUint(u, 10), false
		}
		return int64(u), "", true
	}
	return 0, "", false
}

func fromFloat(f float64) (int64, string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, "not an integer: " + strconv.FormatFloat(f, 'g', -1, 64), false
	}
	// 2^63 is the first float64 above MaxInt64
	if f >= 9223372036854775808.0 || f < math.MinInt64 {
		return 0, "out of int64 range: " + strconv.FormatFloat(f, 'g', -1, 64), false
	}
	return int64(f), "", true
}

// kindOf names the JSON-ish kind of v for diagnostics.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32:
		return "number"
	}
	if _, ok := recordTree(v); ok {
		return "object"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice:
		if rv.IsNil() {
			return "null"
		}
		return "array"
	case reflect.Array:
		return "array"
	case reflect.Map:
		if rv.IsNil() {
			return "null"
		}
		return "object"
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
	}
	return fmt.Sprintf("%T", v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

/********** typed records back to untyped trees **********/

func recordTree(v any) (map[string]any, bool) {
	switch r := v.(type) {
	case domain.Base:
		return baseTree(r), true
	case *domain.Base:
		if r == nil {
			return nil, false
		}
		return baseTree(*r), true
	case domain.Ward:
		return baseTree(r.Base), true
	case *domain.Ward:
		if r == nil {
			return nil, false
		}
		return baseTree(r.Base), true
	case domain.District:
		return districtTree(r), true
	case *domain.District:
		if r == nil {
			return nil, false
		}
		return districtTree(*r), true
	case domain.Province:
		return provinceTree(r), true
	case *domain.Province:
		if r == nil {
			return nil, false
		}
		return provinceTree(*r), true
	}
	return nil, false
}

func baseTree(b domain.Base) map[string]any {
	m := map[string]any{"code": b.Code, "name": b.Name}
	if b.Matches != nil {
		m["matches"] = b.Matches
	}
	return m
}

func districtTree(d domain.District) map[string]any {
	m := baseTree(d.Base)
	if d.Wards != nil {
		m["wards"] = d.Wards
	}
	return m
}

func provinceTree(p domain.Province) map[string]any {
	m := baseTree(p.Base)
	if p.Districts != nil {
		m["districts"] = p.Districts
	}
	return m
}
