//go:build !unix && !windows

package region

// mapAnon falls back to the Go heap when anonymous mappings are not available.
func mapAnon(size int) ([]byte, func() error, error) {
	return heapAlloc(size)
}
