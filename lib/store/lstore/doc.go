// Package lstore implements a local, in-memory map store based on the
// store.IMapStore interface. Data is stored entirely in memory and is not
// persisted between process restarts.
//
// Key Features:
//   - Concurrent hash map (xsync.MapOf) keyed by the encoded key bytes
//   - Automatic write index progression using atomic operations
//   - Per entry metadata: version (write index), creation and update time
//   - Predicate based key enumeration
//
// Implementation Details:
//
//   - Write Index Management: The store maintains an atomic counter that increments
//     with each write operation. The index of the last update is kept as the version
//     of an entry.
//
//   - Predicate Evaluation: Keys(predicate) decodes every entry once with the
//     configured codec and evaluates the predicate against the decoded key and value.
//     A predicate that cannot be evaluated (e.g. ordering a boolean attribute) aborts
//     the enumeration with RetCInvalidOperation instead of silently skipping entries.
//
// Thread Safety:
//
//	All operations are thread-safe. Entries are immutable once stored; updates
//	replace the entry atomically. Keys observes a weakly consistent view of the
//	map while writes are in progress.
//
// Usage Example:
//
//	s := lstore.NewLocalMapStore(codec.NewBinaryCodec())
//	k, _ := c.Encode("joe")
//	v, _ := c.Encode(map[string]any{"age": 42})
//	_, _, err := s.Put(k, v)
//	keys, err := s.Keys(query.MustParse("age > 18"))
package lstore
