package common

// IsEmpty returns true if the slice is empty.
func IsEmpty[S ~[]E, E any](s S) bool {
	return len(s) == 0
}

// Append returns a new slice holding s followed by elems; s is never modified.
func Append[S ~[]E, E any](s S, elems ...E) S {
	out := make(S, 0, len(s)+len(elems))
	out = append(out, s...)

	return append(out, elems...)
}
