package metrics

import (
	"log"
	"sync"

	"github.com/voyora/zara/internal/types"
)

var (
	globalStore *Store
	initOnce    sync.Once
	initErr     error
)

// Init initializes the global metrics store at the given path; an empty path
// uses the default location under the user's home directory.
// It is safe to call multiple times; subsequent calls are no-ops.
func Init(dbPath string) error {
	initOnce.Do(func() {
		if dbPath != "" {
			globalStore, initErr = NewStoreWithPath(dbPath)
		} else {
			globalStore, initErr = NewStore()
		}
		if initErr != nil {
			log.Printf("metrics: failed to initialize store: %v", initErr)
		}
	})
	return initErr
}

// RecordAnswer increments the served-answer count for the given method.
// If the store is not initialized, this is a no-op (logs a warning).
func RecordAnswer(method types.AnswerMethod) {
	if globalStore == nil {
		if err := Init(""); err != nil {
			log.Printf("metrics: cannot record answer, store not initialized: %v", err)
			return
		}
	}

	if err := globalStore.Increment(method); err != nil {
		log.Printf("metrics: failed to record answer for %s: %v", method, err)
	}
}

// GetStats returns the cumulative answer counts for all methods.
// Returns nil if the store is not initialized.
func GetStats() map[types.AnswerMethod]int64 {
	if globalStore == nil {
		return nil
	}

	stats, err := globalStore.GetAllTotals()
	if err != nil {
		log.Printf("metrics: failed to get stats: %v", err)
		return nil
	}

	return stats
}

// GetTotalForMethod returns the cumulative count for a specific method.
// Returns 0 if the store is not initialized or on error.
func GetTotalForMethod(method types.AnswerMethod) int64 {
	if globalStore == nil {
		return 0
	}

	total, err := globalStore.GetTotalByMethod(method)
	if err != nil {
		log.Printf("metrics: failed to get total for %s: %v", method, err)
		return 0
	}

	return total
}

// Close closes the global metrics store.
// Should be called at application shutdown.
func Close() error {
	if globalStore != nil {
		return globalStore.Close()
	}
	return nil
}

// SetStoreForTesting sets the global store instance for testing purposes.
// This should only be used in tests.
func SetStoreForTesting(store *Store) {
	globalStore = store
}

// ResetForTesting resets the global state for testing purposes.
// This should only be used in tests.
func ResetForTesting() {
	if globalStore != nil {
		_ = globalStore.Close()
	}
	globalStore = nil
	initOnce = sync.Once{}
	initErr = nil
}
