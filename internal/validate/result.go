// Package validate provides pure validation and normalization
// functions for user-supplied fields. Validators never panic;
// malformed input always yields an invalid Result with a
// human-readable message, never a partial value.
package validate

// Result is a tagged union: either a valid value or an error message,
// never both.
type Result[T any] struct {
	value   T
	message string
	valid   bool
}

// Ok builds a valid Result carrying value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, valid: true}
}

// Err builds an invalid Result carrying a human-readable message.
func Err[T any](message string) Result[T] {
	return Result[T]{message: message}
}

// Valid reports whether the input was accepted.
func (r Result[T]) Valid() bool { return r.valid }

// Value returns the validated value. It is the zero value when the
// Result is invalid.
func (r Result[T]) Value() T { return r.value }

// Message returns the rejection message, empty when valid.
func (r Result[T]) Message() string { return r.message }
