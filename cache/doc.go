// Package cache provides an in-process TTL cache with LRU eviction,
// used around read-mostly remote calls to avoid repeated fetches.
//
// Entries carry their own time-to-live; a TTL of zero or less means the
// entry never expires. When the cache is full, inserting a new key evicts
// the least-recently-accessed entry. Expired entries are dropped lazily on
// Get and swept on Set; an optional janitor can sweep periodically.
//
//	c := cache.New[User](cache.Config{Name: "users", MaxSize: 128})
//	c.Set("alice", alice)
//	if u, ok := c.Get("alice"); ok {
//	    return u
//	}
package cache
