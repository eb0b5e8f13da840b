package domain

import (
	"context"
	"time"
)

// Source reads raw documents by name ("-" is stdin for the file source).
type Source interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// Decoder turns a raw document into an untyped value tree.
type Decoder interface {
	Decode(format string, body []byte) (any, error)
	// FormatOf guesses the format of a named document.
	FormatOf(name string) string
}

// Metrics receives validation outcomes.
type Metrics interface {
	ObserveValidation(level Level, outcome string, dur time.Duration)
	ObserveFailures(level Level, failures []Failure)
	ObserveBatchEntry(outcome string)
}

// Validation outcomes, used as metric labels and in reports.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Document is one raw input handed to the validation service.
type Document struct {
	Name   string
	Format string
	Body   []byte
}

// Report is the result of validating one document.
type Report struct {
	Source   string          `json:"source"`
	Level    string          `json:"level"`
	Outcome  string          `json:"outcome"`
	List     bool            `json:"list,omitempty"`
	Records  []Record        `json:"records,omitempty"`
	Mismatch *SchemaMismatch `json:"mismatch,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// BatchReport aggregates per-document reports of one batch run, in input order.
type BatchReport struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	OK       int       `json:"ok"`
	Invalid  int       `json:"invalid"`
	Errored  int       `json:"errored"`
	Entries  []Report  `json:"entries"`
}

// Failed reports whether any entry was invalid or errored.
func (b BatchReport) Failed() bool { return b.Invalid > 0 || b.Errored > 0 }
