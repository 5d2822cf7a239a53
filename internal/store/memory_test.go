package store

import "testing"

func initMemoryTestDB(t *testing.T) Store {
	return NewMemoryStore()
}

// TestMemoryStore runs all store tests against the in-memory store
func TestMemoryStore(t *testing.T) {
	RunStoreTests(t, initMemoryTestDB)
}

// TestMemoryStoreConcurrency runs the race tests against the in-memory store
func TestMemoryStoreConcurrency(t *testing.T) {
	RunConcurrencyTests(t, initMemoryTestDB)
}
