package cache

import "fmt"

// CacheIOError reports a failed read or write against the cache backing store.
// Callers treat it as a miss.
type CacheIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheIOError) Unwrap() error {
	return e.Err
}

// PersistError reports a failed index snapshot write. The in-memory index is
// unaffected and the next pass retries.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist cache index %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
