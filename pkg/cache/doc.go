// Package cache provides the time-expiring key-value store behind bill
// metadata, bill text and AI summaries.
//
// A Store binds one Namespace to one TTL and one Backend:
//
// - Entries carry their write time; expiry is checked lazily on read
// - Expired or corrupt entries are deleted on the read that finds them
// - Put is an upsert; the last write wins
// - Backend errors fail open: reads become misses, writes are logged
//
// # Basic Usage
//
//	backend := cache.NewRedisBackend(redisClient)
//	bills := cache.NewStore(backend, cache.NamespaceBills, 24*time.Hour)
//	defer backend.Close()
//
//	bills.Put(ctx, "ocd-bill/123", payload)
//
//	payload, ok := bills.Get(ctx, "ocd-bill/123")
//	if !ok {
//		// Miss or expired - fetch from the next source
//	}
//
// # Backends
//
//   - RedisBackend stores a JSON entry per key and sets a Redis expiry as a backstop
//   - SQLBackend stores rows in a cache_entries table through gorm (sqlite or postgres)
//   - MemoryBackend keeps a bounded LRU in process
//
// # Vote Counts
//
// VoteStore keeps the per-option vote counts for a (bill, vote) pair. The
// option set is replaced as a whole in one transaction; readers never see a
// mix of old and new options.
//
// # Metrics
//
//   - legis_cache_hits_total{namespace}
//   - legis_cache_misses_total{namespace}
//   - legis_cache_expired_total{namespace}
//   - legis_cache_errors_total{namespace,operation}
//   - legis_cache_payload_bytes{namespace}
package cache
