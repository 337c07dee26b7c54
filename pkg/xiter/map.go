//go:build go1.23

package xiter

import (
	"iter"
)

// Map takes a function and creates an iterator which calls that function f on each element.
func Map[T, O any](x iter.Seq[T], f func(T) O) iter.Seq[O] {
	return func(yield func(O) bool) {
		for v := range x {
			if !yield(f(v)) {
				break
			}
		}
	}
}

// MapKeyValue takes a function and creates an iterator which calls that function f on each key-value pair.
func MapKeyValue[K, V, O, P any](x iter.Seq2[K, V], f func(K, V) (O, P)) iter.Seq2[O, P] {
	return func(yield func(O, P) bool) {
		for k, v := range x {
			if !yield(f(k, v)) {
				break
			}
		}
	}
}
