package domain

import (
	"fmt"
	"strings"
)

// Span is a [start, end] character offset pair inside an externally held display string.
type Span [2]int

// SearchMatches maps a matched field name or token to its highlight span.
type SearchMatches map[string]Span

// Base holds the fields shared by every administrative level.
type Base struct {
	Code    int64         `json:"code"`
	Name    string        `json:"name"`
	Matches SearchMatches `json:"matches,omitzero"` // set only by search/highlight producers
}

type Ward struct {
	Base
}

type District struct {
	Base
	Wards []Ward `json:"wards"`
}

type Province struct {
	Base
	Districts []District `json:"districts"`
}

// Record is implemented by Ward, District and Province.
type Record interface {
	Level() Level
	Header() Base
}

func (w Ward) Level() Level     { return LevelWard }
func (d District) Level() Level { return LevelDistrict }
func (p Province) Level() Level { return LevelProvince }

func (b Base) Header() Base { return b }

type Level int

const (
	LevelWard Level = iota
	LevelDistrict
	LevelProvince
)

func (l Level) String() string {
	switch l {
	case LevelWard:
		return "ward"
	case LevelDistrict:
		return "district"
	case LevelProvince:
		return "province"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts "ward", "district" or "province" in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ward":
		return LevelWard, nil
	case "district":
		return LevelDistrict, nil
	case "province":
		return LevelProvince, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}
