// Package store persists named collections of records as JSON arrays.
package store

// Backend reads and writes the raw JSON array of one collection.
type Backend interface {
	// Read returns the stored array. A collection that does not exist yet is
	// created empty and returned as "[]".
	Read(name string) ([]byte, error)
	// Write replaces the stored array with data.
	Write(name string, data []byte) error
	// Update passes the stored array to fn and stores what it returns. The
	// backend holds a lock that other processes sharing the data also honour,
	// so read-modify-write cycles never interleave. If fn fails nothing is written.
	Update(name string, fn func([]byte) ([]byte, error)) error
}
