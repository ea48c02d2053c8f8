// Package cache provides a Redis-backed cache for raw API list and record
// responses, shared by every transport that points at the same Redis.
//
// It sits below the collection layer: a Collection keeps its realized page in
// memory until invalidated, while this cache lets separate processes (or a
// freshly built Collection) reuse a recent GET response and revalidate it with
// a conditional request instead of paying for the full body again.
//
// # Usage
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(rdb, cache.DefaultPrefix)
//
//	key := cache.Key{
//		Endpoint:    "/api/v2/tickets",
//		QueryParams: url.Values{"page": []string{"2"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch, then manager.Set(ctx, key, entry)
//	}
//
// # Freshness
//
// Entry lifetime comes from Cache-Control max-age, then Expires, then
// DefaultTTL. Entries carrying an ETag or Last-Modified are revalidated with
// If-None-Match / If-Modified-Since; a 304 refreshes the stored TTL.
package cache
