package cache

// Cache is the generic cache contract used by the ledger service for
// category/budget lookups and by the bot for webhook event dedup.
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Purge removes every entry
	Purge()

	// Size returns the current number of items in the cache
	Size() int
}
