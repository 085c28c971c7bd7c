package store

import (
	"fmt"

	"github.com/ValentinKolb/dGrid/lib/query"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IMapStore is the member side storage of a single named map.
// Keys and values are stored in their encoded form; the store only decodes
// them when a predicate has to be evaluated.
// All methods return a *Error (nil on success).
type IMapStore interface {
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(key []byte) (value []byte, loaded bool, err error)
	// Put inserts or updates a key–value pair and returns the previous value (if any).
	Put(key, value []byte) (previous []byte, loaded bool, err error)
	// PutIfAbsent inserts a key–value pair if the key does not exist.
	// If the key already exists the existing value is returned and left unchanged.
	PutIfAbsent(key, value []byte) (existing []byte, loaded bool, err error)
	// Remove deletes a key–value pair and returns the removed value (if any).
	Remove(key []byte) (previous []byte, loaded bool, err error)
	// ContainsKey returns whether a key exists in the store.
	ContainsKey(key []byte) (loaded bool, err error)
	// Size returns the number of entries.
	Size() (size int, err error)
	// Keys returns the decoded keys of all entries matching the predicate.
	// A nil predicate matches every entry.
	Keys(predicate query.Predicate) (keys []any, err error)
	// Clear removes all entries.
	Clear() (err error)
	// WriteIdx returns the index of the last write operation.
	WriteIdx() (index uint64)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("MapStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new MapStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the store.
	RetCInvalidOperation                    // 3: Invalid operation.
)

// String returns the name of the return code
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	default:
		return "Unknown"
	}
}
