// Package schema validates untyped administrative-division records
// (province → district → ward) and normalizes them into domain types.
//
// Validation is structural only: codes are not checked for uniqueness and
// match keys are not checked against field names.
package schema

import (
	"fmt"
	"strings"

	"georecords/internal/domain"
)

// Policy decides what happens to object keys the schema does not know.
type Policy int

const (
	// PolicyStrict reports every unknown key as a failure.
	PolicyStrict Policy = iota
	// PolicyMask drops unknown keys silently.
	PolicyMask
)

func (p Policy) String() string {
	if p == PolicyMask {
		return "mask"
	}
	return "strict"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return PolicyStrict, nil
	case "mask", "loose":
		return PolicyMask, nil
	}
	return 0, fmt.Errorf("unknown policy %q (want strict or mask)", s)
}

type Options struct {
	Policy Policy
	// MaxFailures caps the reported failures; 0 reports all of them.
	MaxFailures int
}

// Validator is stateless and safe for concurrent use.
type Validator struct {
	opts Options
}

func New(opts Options) *Validator {
	if opts.MaxFailures < 0 {
		opts.MaxFailures = 0
	}
	return &Validator{opts: opts}
}

var std = New(Options{Policy: PolicyStrict})

// ValidateWard checks input against the ward shape using the strict policy.
func ValidateWard(input any) (domain.Ward, error) { return std.Ward(input) }

// ValidateDistrict checks input against the district shape using the strict policy.
func ValidateDistrict(input any) (domain.District, error) { return std.District(input) }

// ValidateProvince checks input against the province shape using the strict policy.
func ValidateProvince(input any) (domain.Province, error) { return std.Province(input) }

func (v *Validator) Ward(input any) (domain.Ward, error) {
	w := v.walker()
	out := w.ward("", input)
	if err := w.mismatch(domain.LevelWard); err != nil {
		return domain.Ward{}, err
	}
	return out, nil
}

func (v *Validator) District(input any) (domain.District, error) {
	w := v.walker()
	out := w.district("", input)
	if err := w.mismatch(domain.LevelDistrict); err != nil {
		return domain.District{}, err
	}
	return out, nil
}

func (v *Validator) Province(input any) (domain.Province, error) {
	w := v.walker()
	out := w.province("", input)
	if err := w.mismatch(domain.LevelProvince); err != nil {
		return domain.Province{}, err
	}
	return out, nil
}

// Validate dispatches on level.
func (v *Validator) Validate(level domain.Level, input any) (domain.Record, error) {
	var (
		rec domain.Record
		err error
	)
	switch level {
	case domain.LevelWard:
		rec, err = v.Ward(input)
	case domain.LevelDistrict:
		rec, err = v.District(input)
	case domain.LevelProvince:
		rec, err = v.Province(input)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownLevel, level)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List validates a top-level array of records of one level. Failure paths
// start with the element index, e.g. "[2].districts[0].name".
func (v *Validator) List(level domain.Level, input any) ([]domain.Record, error) {
	if level < domain.LevelWard || level > domain.LevelProvince {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownLevel, level)
	}
	w := v.walker()
	seq, ok := asSequence(input)
	if !ok {
		w.fail("", "array", kindOf(input), "")
		return nil, w.mismatch(level)
	}
	out := make([]domain.Record, 0, len(seq))
	for i, e := range seq {
		p := index("", i)
		switch level {
		case domain.LevelWard:
			out = append(out, w.ward(p, e))
		case domain.LevelDistrict:
			out = append(out, w.district(p, e))
		default:
			out = append(out, w.province(p, e))
		}
	}
	if err := w.mismatch(level); err != nil {
		return nil, err
	}
	return out, nil
}

// Check is Validate returning a Result instead of a pair.
func (v *Validator) Check(level domain.Level, input any) Result[domain.Record] {
	rec, err := v.Validate(level, input)
	return From(rec, err)
}

// CheckList is List returning a Result.
func (v *Validator) CheckList(level domain.Level, input any) Result[[]domain.Record] {
	recs, err := v.List(level, input)
	return From(recs, err)
}

/********** walker **********/

var fieldSets = map[domain.Level]map[string]struct{}{
	domain.LevelWard:     {"code": {}, "name": {}, "matches": {}},
	domain.LevelDistrict: {"code": {}, "name": {}, "matches": {}, "wards": {}},
	domain.LevelProvince: {"code": {}, "name": {}, "matches": {}, "districts": {}},
}

// walker accumulates failures for a single validation call.
type walker struct {
	opts     Options
	failures []domain.Failure
}

func (v *Validator) walker() *walker { return &walker{opts: v.opts} }

func (w *walker) fail(path, expected, actual, reason string) {
	if w.opts.MaxFailures > 0 && len(w.failures) >= w.opts.MaxFailures {
		return
	}
	w.failures = append(w.failures, domain.Failure{Path: path, Expected: expected, Actual: actual, Reason: reason})
}

func (w *walker) mismatch(level domain.Level) error {
	if len(w.failures) == 0 {
		return nil
	}
	return &domain.SchemaMismatch{Level: level, Failures: w.failures}
}

func (w *walker) object(path string, v any) (map[string]any, bool) {
	obj, ok := asObject(v)
	if !ok {
		actual := kindOf(v)
		if actual == "object" {
			actual = "object with non-string keys"
		}
		w.fail(path, "object", actual, "")
		return nil, false
	}
	return obj, true
}

func (w *walker) unknown(path string, obj map[string]any, level domain.Level) {
	if w.opts.Policy != PolicyStrict {
		return
	}
	allowed := fieldSets[level]
	for _, k := range sortedKeys(obj) {
		if _, ok := allowed[k]; !ok {
			w.fail(key(path, k), "no such field", kindOf(obj[k]), "unknown field")
		}
	}
}

func (w *walker) integer(path string, v any) (int64, bool) {
	n, reason, ok := asInt64(v)
	if !ok {
		w.fail(path, "integer", kindOf(v), reason)
	}
	return n, ok
}

func (w *walker) base(path string, obj map[string]any) domain.Base {
	var b domain.Base
	if v, ok := obj["code"]; !ok {
		w.fail(field(path, "code"), "integer", "missing", "")
	} else if n, ok := w.integer(field(path, "code"), v); ok {
		b.Code = n
	}
	if v, ok := obj["name"]; !ok {
		w.fail(field(path, "name"), "string", "missing", "")
	} else if s, ok := asString(v); ok {
		b.Name = s
	} else {
		w.fail(field(path, "name"), "string", kindOf(v), "")
	}
	if v, ok := obj["matches"]; ok {
		b.Matches = w.matches(field(path, "matches"), v)
	}
	return b
}

func (w *walker) matches(path string, v any) domain.SearchMatches {
	obj, ok := w.object(path, v)
	if !ok {
		return nil
	}
	out := make(domain.SearchMatches, len(obj))
	for _, k := range sortedKeys(obj) {
		p := key(path, k)
		seq, ok := asSequence(obj[k])
		if !ok {
			w.fail(p, "array of 2 integers", kindOf(obj[k]), "")
			continue
		}
		if len(seq) != 2 {
			w.fail(p, "array of 2 integers", fmt.Sprintf("array of length %d", len(seq)), "")
			continue
		}
		var span domain.Span
		good := true
		for i, e := range seq {
			n, ok := w.integer(index(p, i), e)
			if !ok {
				good = false
				continue
			}
			if int64(int(n)) != n {
				w.fail(index(p, i), "integer", "number", "out of int range")
				good = false
				continue
			}
			span[i] = int(n)
		}
		if good {
			out[k] = span
		}
	}
	return out
}

func (w *walker) ward(path string, v any) domain.Ward {
	obj, ok := w.object(path, v)
	if !ok {
		return domain.Ward{}
	}
	out := domain.Ward{Base: w.base(path, obj)}
	w.unknown(path, obj, domain.LevelWard)
	return out
}

func (w *walker) district(path string, v any) domain.District {
	obj, ok := w.object(path, v)
	if !ok {
		return domain.District{Wards: []domain.Ward{}}
	}
	out := domain.District{Base: w.base(path, obj), Wards: []domain.Ward{}}
	if raw, ok := obj["wards"]; ok {
		p := field(path, "wards")
		if seq, ok := asSequence(raw); !ok {
			w.fail(p, "array", kindOf(raw), "")
		} else {
			out.Wards = make([]domain.Ward, 0, len(seq))
			for i, e := range seq {
				out.Wards = append(out.Wards, w.ward(index(p, i), e))
			}
		}
	}
	w.unknown(path, obj, domain.LevelDistrict)
	return out
}

func (w *walker) province(path string, v any) domain.Province {
	obj, ok := w.object(path, v)
	if !ok {
		return domain.Province{Districts: []domain.District{}}
	}
	out := domain.Province{Base: w.base(path, obj), Districts: []domain.District{}}
	if raw, ok := obj["districts"]; ok {
		p := field(path, "districts")
		if seq, ok := asSequence(raw); !ok {
			w.fail(p, "array", kindOf(raw), "")
		} else {
			out.Districts = make([]domain.District, 0, len(seq))
			for i, e := range seq {
				out.Districts = append(out.Districts, w.district(index(p, i), e))
			}
		}
	}
	w.unknown(path, obj, domain.LevelProvince)
	return out
}
