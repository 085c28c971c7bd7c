// Package store defines the member side storage abstraction for named distributed maps
// together with a unified error type.
//
// Key Components:
//
//   - IMapStore Interface: Operations on a single named map (get, put, put-if-absent,
//     remove, contains, size, predicate key enumeration, clear). Keys and values are
//     kept in their encoded form so that the store never needs to know the client's
//     types; only predicate evaluation decodes entries.
//
//   - Error System: A structured error reporting mechanism using typed error codes
//     and descriptive messages. This allows the RPC layer to turn store failures into
//     error responses without losing the reason.
//
// Implementations:
//
//	- Local Map Store (lstore): An in-memory implementation backed by a concurrent
//	  hash map. It manages write index progression internally using atomic operations.
//	  Available in the "github.com/ValentinKolb/dGrid/lib/store/lstore" package.
package store
