package schema

import (
	"errors"

	"georecords/internal/domain"
)

// Result is either a value (Ok) or an error (Err), never both.
type Result[T any] struct {
	value T
	err   error
}

func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

func Err[T any](err error) Result[T] { return Result[T]{err: err} }

// From lifts a (value, error) pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

func (r Result[T]) IsOk() bool { return r.err == nil }

// Value returns the value and whether the result is Ok.
func (r Result[T]) Value() (T, bool) { return r.value, r.err == nil }

func (r Result[T]) Err() error { return r.err }

// Mismatch returns the schema failure, or nil when the result is Ok or failed
// for another reason.
func (r Result[T]) Mismatch() *domain.SchemaMismatch {
	var sm *domain.SchemaMismatch
	if errors.As(r.err, &sm) {
		return sm
	}
	return nil
}

func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }
