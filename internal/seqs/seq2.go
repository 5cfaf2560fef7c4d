package seqs

import "iter"

// Seq2 wraps items in an iter.Seq2 with a nil error for each item.
func Seq2[T any](items ...T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Error returns an iter.Seq2 that yields a single zero value with the error.
func Error[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}
