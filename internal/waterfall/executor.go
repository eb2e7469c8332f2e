package waterfall

import (
	"context"
	"errors"
)

// Resolve evaluates sources in order and returns the first value produced.
// Later sources are never called once one succeeds. When nothing succeeds the
// returned error wraps ErrExhausted and the resolution still carries every
// attempt.
func Resolve[T any](ctx context.Context, sources ...Source[T]) (Resolution[T], error) {
	var res Resolution[T]
	for _, src := range sources {
		if src.Fetch == nil {
			res.Attempts = append(res.Attempts, Attempt{Source: src.Name, Skipped: true})
			continue
		}

		v, err := src.Fetch(ctx)
		if err == nil {
			res.Source = src.Name
			res.Value = v
			return res, nil
		}

		res.Attempts = append(res.Attempts, Attempt{
			Source:  src.Name,
			Skipped: errors.Is(err, ErrSkip),
			Err:     err,
		})
	}
	return res, ErrExhausted
}
