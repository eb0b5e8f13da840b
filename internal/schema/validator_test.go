package schema_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georecords/internal/domain"
	"georecords/internal/schema"
)

// ---- helpers ----

func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func mismatch(t *testing.T, err error) *domain.SchemaMismatch {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrSchemaMismatch)
	var sm *domain.SchemaMismatch
	require.True(t, errors.As(err, &sm))
	require.NotEmpty(t, sm.Failures)
	return sm
}

// ---- ward ----

func TestValidateWard_Minimal(t *testing.T) {
	w, err := schema.ValidateWard(map[string]any{"code": 10, "name": "Phúc Xá"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), w.Code)
	assert.Equal(t, "Phúc Xá", w.Name)
	assert.Nil(t, w.Matches)
}

func TestValidateWard_NumberKinds(t *testing.T) {
	for name, code := range map[string]any{
		"float64":     float64(7),
		"json.Number": json.Number("7"),
		"int32":       int32(7),
		"uint8":       uint8(7),
		"json float":  json.Number("7.0"),
	} {
		t.Run(name, func(t *testing.T) {
			w, err := schema.ValidateWard(map[string]any{"code": code, "name": "x"})
			require.NoError(t, err)
			assert.Equal(t, int64(7), w.Code)
		})
	}
}

func TestValidateWard_RejectsBadBaseFields(t *testing.T) {
	cases := []struct {
		name     string
		in       any
		path     string
		expected string
		actual   string
	}{
		{"missing code", map[string]any{"name": "x"}, "code", "integer", "missing"},
		{"string code", map[string]any{"code": "1", "name": "x"}, "code", "integer", "string"},
		{"fractional code", map[string]any{"code": 1.5, "name": "x"}, "code", "integer", "number"},
		{"missing name", map[string]any{"code": 1}, "name", "string", "missing"},
		{"numeric name", map[string]any{"code": 1, "name": 3}, "name", "string", "number"},
		{"decoded numeric name", decode(t, `{"code":1,"name":123}`), "name", "string", "number"},
		{"code below int64", decode(t, `{"code":-9223372036854775809,"name":"x"}`), "code", "integer", "number"},
		{"code above int64", decode(t, `{"code":9223372036854775808,"name":"x"}`), "code", "integer", "number"},
		{"null name", map[string]any{"code": 1, "name": nil}, "name", "string", "null"},
		{"not an object", []any{1, 2}, "", "object", "array"},
		{"nil", nil, "", "object", "null"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.ValidateWard(tc.in)
			sm := mismatch(t, err)
			f := sm.Failures[0]
			assert.Equal(t, tc.path, f.Path)
			assert.Equal(t, tc.expected, f.Expected)
			assert.Equal(t, tc.actual, f.Actual)
		})
	}
}

func TestValidateWard_Matches(t *testing.T) {
	w, err := schema.ValidateWard(decode(t, `{"code":1,"name":"Ba Đình","matches":{"name":[0,2]}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.SearchMatches{"name": {0, 2}}, w.Matches)

	w, err = schema.ValidateWard(decode(t, `{"code":1,"name":"x","matches":{}}`))
	require.NoError(t, err)
	assert.NotNil(t, w.Matches)
	assert.Empty(t, w.Matches)
}

func TestValidateWard_MatchesWrongLength(t *testing.T) {
	for _, body := range []string{
		`{"code":1,"name":"x","matches":{"name":[]}}`,
		`{"code":1,"name":"x","matches":{"name":[1]}}`,
		`{"code":1,"name":"x","matches":{"name":[1,2,3]}}`,
		`{"code":1,"name":"x","matches":{"ok":[1,2],"name":[1,2,3,4]}}`,
	} {
		_, err := schema.ValidateWard(decode(t, body))
		sm := mismatch(t, err)
		assert.Equal(t, "matches.name", sm.Path(), body)
	}
}

func TestValidateWard_MatchesBadShapes(t *testing.T) {
	_, err := schema.ValidateWard(decode(t, `{"code":1,"name":"x","matches":null}`))
	assert.Equal(t, "matches", mismatch(t, err).Path())

	_, err = schema.ValidateWard(decode(t, `{"code":1,"name":"x","matches":{"full name":[0,"2"]}}`))
	sm := mismatch(t, err)
	assert.Equal(t, `matches["full name"][1]`, sm.Path())
	assert.Equal(t, "string", sm.Failures[0].Actual)
}

// ---- district ----

func TestValidateDistrict_DefaultsWards(t *testing.T) {
	d, err := schema.ValidateDistrict(map[string]any{"code": 1, "name": "D"})
	require.NoError(t, err)
	require.NotNil(t, d.Wards)
	assert.Empty(t, d.Wards)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":1,"name":"D","wards":[]}`, string(b))
}

func TestValidateDistrict_PreservesOrder(t *testing.T) {
	d, err := schema.ValidateDistrict(decode(t, `{"code":1,"name":"D","wards":[{"code":11,"name":"B"},{"code":10,"name":"A"},{"code":11,"name":"B"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []domain.Ward{
		{Base: domain.Base{Code: 11, Name: "B"}},
		{Base: domain.Base{Code: 10, Name: "A"}},
		{Base: domain.Base{Code: 11, Name: "B"}},
	}, d.Wards)
}

func TestValidateDistrict_NullWardsFails(t *testing.T) {
	_, err := schema.ValidateDistrict(decode(t, `{"code":1,"name":"D","wards":null}`))
	sm := mismatch(t, err)
	assert.Equal(t, "wards", sm.Path())
	assert.Equal(t, "null", sm.Failures[0].Actual)
}

func TestValidateDistrict_ReportsChildIndex(t *testing.T) {
	_, err := schema.ValidateDistrict(decode(t, `{"code":1,"name":"D","wards":[{"code":10,"name":"A"},{"code":"11","name":"B"}]}`))
	assert.Equal(t, "wards[1].code", mismatch(t, err).Path())
}

// ---- province ----

func TestValidateProvince_NestedPath(t *testing.T) {
	in := decode(t, `{"code":1,"name":"Hà Nội","districts":[{"code":1,"name":"Ba Đình","wards":[{"code":1,"name":"Phúc Xá"},{"code":4}]}]}`)
	_, err := schema.ValidateProvince(in)
	sm := mismatch(t, err)
	assert.Equal(t, "districts[0].wards[1].name", sm.Path())
	assert.Contains(t, err.Error(), "districts[0].wards[1].name: expected string, got missing")
	assert.Equal(t, domain.LevelProvince, sm.Level)
}

func TestValidateProvince_CollectsAllFailures(t *testing.T) {
	in := decode(t, `{"name":1,"districts":[{"code":2,"name":"D","wards":[{}]}],"extra":true}`)
	_, err := schema.ValidateProvince(in)
	sm := mismatch(t, err)
	assert.Equal(t, []string{
		"code",
		"name",
		"districts[0].wards[0].code",
		"districts[0].wards[0].name",
		"extra",
	}, sm.Paths())
	assert.Contains(t, err.Error(), "(and 4 more)")
}

func TestValidateProvince_DefaultsDistricts(t *testing.T) {
	p, err := schema.ValidateProvince(decode(t, `{"code":1,"name":"P"}`))
	require.NoError(t, err)
	require.NotNil(t, p.Districts)
	assert.Empty(t, p.Districts)
}

// ---- policy ----

func TestPolicy_StrictRejectsUnknownFields(t *testing.T) {
	_, err := schema.ValidateWard(map[string]any{"code": 1, "name": "x", "wards": []any{}, "codename": "y"})
	sm := mismatch(t, err)
	assert.Equal(t, []string{"codename", "wards"}, sm.Paths())
	assert.Equal(t, "unknown field", sm.Failures[0].Reason)
}

func TestPolicy_MaskDropsUnknownFields(t *testing.T) {
	v := schema.New(schema.Options{Policy: schema.PolicyMask})
	p, err := v.Province(decode(t, `{"code":1,"name":"P","phone_code":24,"districts":[{"code":2,"name":"D","division_type":"quận"}]}`))
	require.NoError(t, err)
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":1,"name":"P","districts":[{"code":2,"name":"D","wards":[]}]}`, string(b))
}

func TestParsePolicy(t *testing.T) {
	p, err := schema.ParsePolicy("MASK")
	require.NoError(t, err)
	assert.Equal(t, schema.PolicyMask, p)
	p, err = schema.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, schema.PolicyStrict, p)
	_, err = schema.ParsePolicy("lenient")
	assert.Error(t, err)
}

func TestMaxFailures(t *testing.T) {
	v := schema.New(schema.Options{MaxFailures: 2})
	_, err := v.District(decode(t, `{"wards":[{},{},{}]}`))
	assert.Len(t, mismatch(t, err).Failures, 2)
}

// ---- idempotence & determinism ----

func TestIdempotence_TypedValues(t *testing.T) {
	in := decode(t, `{"code":1,"name":"Hà Nội","matches":{"name":[0,3]},"districts":[
		{"code":1,"name":"Ba Đình","wards":[{"code":1,"name":"Phúc Xá","matches":{"name":[1,2]}}]},
		{"code":2,"name":"Hoàn Kiếm"}]}`)
	p1, err := schema.ValidateProvince(in)
	require.NoError(t, err)

	p2, err := schema.ValidateProvince(p1)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	p3, err := schema.ValidateProvince(&p1)
	require.NoError(t, err)
	assert.Equal(t, p1, p3)

	d, err := schema.ValidateDistrict(p1.Districts[0])
	require.NoError(t, err)
	assert.Equal(t, p1.Districts[0], d)

	w, err := schema.ValidateWard(p1.Districts[0].Wards[0])
	require.NoError(t, err)
	assert.Equal(t, p1.Districts[0].Wards[0], w)
}

func TestIdempotence_JSONRoundTrip(t *testing.T) {
	for _, in := range []string{
		`{"code":79,"name":"Hồ Chí Minh","districts":[{"code":760,"name":"Quận 1"}]}`,
		`{"code":79,"name":"Hồ Chí Minh","matches":{},"districts":[{"code":760,"name":"Quận 1","matches":{"name":[0,4]}}]}`,
	} {
		p1, err := schema.ValidateProvince(decode(t, in))
		require.NoError(t, err)
		b, err := json.Marshal(p1)
		require.NoError(t, err)

		p2, err := schema.ValidateProvince(decode(t, string(b)))
		require.NoError(t, err)
		assert.Equal(t, p1, p2, string(b))
	}

	w, err := schema.ValidateWard(decode(t, `{"code":1,"name":"x","matches":{}}`))
	require.NoError(t, err)
	b, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":1,"name":"x","matches":{}}`, string(b))
}

func TestDeterministicFailures(t *testing.T) {
	in := decode(t, `{"code":1,"name":"x","matches":{"z":[1],"a":[1],"m":"no"},"b":1,"a":2}`)
	_, err1 := schema.ValidateWard(in)
	_, err2 := schema.ValidateWard(in)
	assert.Equal(t, mismatch(t, err1).Failures, mismatch(t, err2).Failures)
	assert.Equal(t, []string{"matches.a", "matches.m", "matches.z", "a", "b"}, mismatch(t, err1).Paths())
}

func TestConcurrentUse(t *testing.T) {
	v := schema.New(schema.Options{})
	in := decode(t, `{"code":1,"name":"D","wards":[{"code":10,"name":"A"},{"code":11,"name":"B"}]}`)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := v.District(in)
			assert.NoError(t, err)
			assert.Len(t, d.Wards, 2)
		}()
	}
	wg.Wait()
}

// ---- list, dispatch & result ----

func TestList(t *testing.T) {
	v := schema.New(schema.Options{})
	recs, err := v.List(domain.LevelProvince, decode(t, `[{"code":1,"name":"A"},{"code":2,"name":"B"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "B", recs[1].Header().Name)
	assert.Equal(t, domain.LevelProvince, recs[1].Level())

	_, err = v.List(domain.LevelProvince, decode(t, `[{"code":1,"name":"A"},{"code":2,"name":"B","districts":[{"code":"x","name":"C"}]}]`))
	assert.Equal(t, "[1].districts[0].code", mismatch(t, err).Path())

	_, err = v.List(domain.LevelWard, decode(t, `{"code":1,"name":"A"}`))
	assert.Equal(t, "array", mismatch(t, err).Failures[0].Expected)
}

func TestValidate_UnknownLevel(t *testing.T) {
	_, err := schema.New(schema.Options{}).Validate(domain.Level(9), map[string]any{})
	assert.ErrorIs(t, err, domain.ErrUnknownLevel)
	assert.NotErrorIs(t, err, domain.ErrSchemaMismatch)
}

func TestCheck(t *testing.T) {
	v := schema.New(schema.Options{})

	ok := v.Check(domain.LevelWard, map[string]any{"code": 1, "name": "x"})
	require.True(t, ok.IsOk())
	rec, isOk := ok.Value()
	require.True(t, isOk)
	assert.Equal(t, domain.Ward{Base: domain.Base{Code: 1, Name: "x"}}, rec)
	assert.Nil(t, ok.Mismatch())

	bad := v.Check(domain.LevelWard, map[string]any{"code": 1})
	assert.False(t, bad.IsOk())
	require.NotNil(t, bad.Mismatch())
	assert.Equal(t, "name", bad.Mismatch().Path())
	_, err := bad.Unwrap()
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)
}

func TestYAMLShapedMaps(t *testing.T) {
	in := map[string]any{
		"code": 1,
		"name": "P",
		"districts": []any{
			map[any]any{"code": 2, "name": "D", "wards": []any{map[any]any{"code": uint64(3), "name": "W"}}},
		},
	}
	p, err := schema.ValidateProvince(in)
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Districts[0].Wards[0].Code)

	_, err = schema.ValidateWard(map[any]any{1: "x"})
	assert.Equal(t, "object with non-string keys", mismatch(t, err).Failures[0].Actual)
}
