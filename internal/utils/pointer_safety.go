package utils

// Ptr returns a pointer to v, for optional filter parameters.
func Ptr[T any](v T) *T {
	return &v
}
