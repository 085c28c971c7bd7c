package lstore

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dGrid/lib/codec"
	"github.com/ValentinKolb/dGrid/lib/query"
	"github.com/ValentinKolb/dGrid/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
)

// entry is a single stored key–value pair. Entries are never modified in place,
// every write stores a new entry.
type entry struct {
	key     []byte
	value   []byte
	version uint64    // write index of the last update
	created time.Time // time of the first write
	updated time.Time // time of the last write
}

type storeImpl struct {
	codec   codec.ICodec
	entries *xsync.MapOf[string, *entry]
	index   atomic.Uint64
}

// NewLocalMapStore creates a new in-memory map store.
// The codec is only used to decode keys and values when Keys is called.
func NewLocalMapStore(c codec.ICodec) store.IMapStore {
	return &storeImpl{
		codec:   c,
		entries: xsync.NewMapOf[string, *entry](),
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// newEntry creates the entry replacing old (which may be nil)
func (s *storeImpl) newEntry(old *entry, key, value []byte) *entry {
	now := time.Now()
	e := &entry{
		key:     key,
		value:   value,
		version: s.incAndGetIndex(),
		created: now,
		updated: now,
	}
	if old != nil {
		e.created = old.created
	}
	return e
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(key []byte) ([]byte, bool, error) {
	if key == nil {
		return nil, false, store.NewError(store.RetCInvalidOperation, "key must not be absent")
	}
	e, ok := s.entries.Load(string(key))
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *storeImpl) Put(key, value []byte) ([]byte, bool, error) {
	if key == nil || value == nil {
		return nil, false, store.NewError(store.RetCInvalidOperation, "key and value must not be absent")
	}
	var previous *entry
	s.entries.Compute(string(key), func(old *entry, loaded bool) (*entry, bool) {
		if loaded {
			previous = old
		}
		return s.newEntry(previous, key, value), false
	})
	if previous == nil {
		return nil, false, nil
	}
	return previous.value, true, nil
}

func (s *storeImpl) PutIfAbsent(key, value []byte) ([]byte, bool, error) {
	if key == nil || value == nil {
		return nil, false, store.NewError(store.RetCInvalidOperation, "key and value must not be absent")
	}
	actual, loaded := s.entries.LoadOrCompute(string(key), func() *entry {
		return s.newEntry(nil, key, value)
	})
	if !loaded {
		return nil, false, nil
	}
	return actual.value, true, nil
}

func (s *storeImpl) Remove(key []byte) ([]byte, bool, error) {
	if key == nil {
		return nil, false, store.NewError(store.RetCInvalidOperation, "key must not be absent")
	}
	e, ok := s.entries.LoadAndDelete(string(key))
	if !ok {
		return nil, false, nil
	}
	s.incAndGetIndex()
	return e.value, true, nil
}

func (s *storeImpl) ContainsKey(key []byte) (bool, error) {
	if key == nil {
		return false, store.NewError(store.RetCInvalidOperation, "key must not be absent")
	}
	_, ok := s.entries.Load(string(key))
	return ok, nil
}

func (s *storeImpl) Size() (int, error) {
	return s.entries.Size(), nil
}

func (s *storeImpl) Keys(predicate query.Predicate) ([]any, error) {
	keys := make([]any, 0)
	var err error

	s.entries.Range(func(_ string, e *entry) bool {
		var key, value any
		if key, err = s.codec.Decode(e.key); err != nil {
			err = store.NewError(store.RetCInternalError, fmt.Sprintf("decode key: %v", err))
			return false
		}

		if predicate != nil {
			if value, err = s.codec.Decode(e.value); err != nil {
				err = store.NewError(store.RetCInternalError, fmt.Sprintf("decode value: %v", err))
				return false
			}
			var ok bool
			if ok, err = predicate.Apply(query.NewEntry(key, value)); err != nil {
				err = store.NewError(store.RetCInvalidOperation, fmt.Sprintf("evaluate %s: %v", predicate, err))
				return false
			}
			if !ok {
				return true
			}
		}

		keys = append(keys, key)
		return true
	})

	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *storeImpl) Clear() error {
	s.entries.Clear()
	s.incAndGetIndex()
	return nil
}

func (s *storeImpl) WriteIdx() uint64 {
	return s.index.Load()
}
