// Package waterfall resolves a value from an ordered cascade of sources where
// the first source to produce a value wins.
package waterfall

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrSkip is returned by a source that does not apply to the current request,
// such as an override the caller did not supply. Skips are not failures.
var ErrSkip = eris.New("waterfall: source not applicable")

// ErrExhausted is returned when every source skipped or failed.
var ErrExhausted = eris.New("waterfall: no source produced a value")

// Source is one step of a cascade.
type Source[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
}

// Attempt records the outcome of a source that did not win.
type Attempt struct {
	Source  string `json:"source"`
	Skipped bool   `json:"skipped"`
	Err     error  `json:"-"`
}

// Resolution is the winning value together with its provenance.
type Resolution[T any] struct {
	Source   string    `json:"source"`
	Value    T         `json:"value"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

// Failures returns the attempts that failed rather than skipped.
func (r Resolution[T]) Failures() []Attempt {
	var out []Attempt
	for _, a := range r.Attempts {
		if !a.Skipped {
			out = append(out, a)
		}
	}
	return out
}

// Optional returns a source yielding *v, or skipping when v is nil.
func Optional[T any](name string, v *T) Source[T] {
	return Source[T]{
		Name: name,
		Fetch: func(context.Context) (T, error) {
			if v == nil {
				var zero T
				return zero, ErrSkip
			}
			return *v, nil
		},
	}
}

// Static returns a source that always yields v.
func Static[T any](name string, v T) Source[T] {
	return Source[T]{
		Name:  name,
		Fetch: func(context.Context) (T, error) { return v, nil },
	}
}
