package util

// GetPtr returns a pointer to v. Handy for optional fields in tests.
func GetPtr[T any](v T) *T {
	return &v
}
