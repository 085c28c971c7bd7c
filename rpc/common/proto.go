package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Packet Structure
// --------------------------------------------------------------------------

// Packet is the operation descriptor used for both requests and responses.
// Key and Value hold codec encoded data; nil means absent and is kept apart
// from an empty slice by all serializers except gob.
type Packet struct {
	// Name of the distributed resource (e.g. "c:users" for the map "users")
	Name string `json:"name,omitempty"`
	// Operation to execute
	Operation Operation `json:"op"`
	// CallerID identifies the logical caller that issued the request
	CallerID string `json:"caller,omitempty"`

	Key   []byte `json:"key"`   // Used for: get, put, put-if-absent, remove, contains-key
	Value []byte `json:"value"` // Used for: put, put-if-absent, iterate-keys (predicate) and all responses

	// Response only fields
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message
}

// String returns a short description of the packet, payloads are only given by size
func (p *Packet) String() string {
	if p.Err != "" {
		return fmt.Sprintf("%s(%s) err=%q", p.Operation, p.Name, p.Err)
	}
	return fmt.Sprintf("%s(%s) key=%dB value=%dB", p.Operation, p.Name, len(p.Key), len(p.Value))
}

// --------------------------------------------------------------------------
// Packet Factory Functions
// --------------------------------------------------------------------------

// NewRequest creates a new request for the named resource
func NewRequest(name string, op Operation, callerID string, key, value []byte) *Packet {
	return &Packet{
		Name:      name,
		Operation: op,
		CallerID:  callerID,
		Key:       key,
		Value:     value,
	}
}

// NewResponse creates a successful response to req carrying value (may be nil)
func NewResponse(req *Packet, value []byte) *Packet {
	return &Packet{
		Name:      req.Name,
		Operation: req.Operation,
		CallerID:  req.CallerID,
		Value:     value,
	}
}

// NewErrorResponse creates a response to req reporting that the operation failed
func NewErrorResponse(req *Packet, err error) *Packet {
	msg := &Packet{
		Name:      req.Name,
		Operation: req.Operation,
		CallerID:  req.CallerID,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorPacket creates a response for requests that could not be read at all
func NewErrorPacket(err string) *Packet {
	return &Packet{
		Operation: OpError,
		Err:       err,
	}
}

// --------------------------------------------------------------------------
// Operation Definition
// --------------------------------------------------------------------------

// Operation defines the kind of remote operation a packet describes.
type Operation uint8

// String returns the string representation of an Operation.
func (o Operation) String() string {
	switch o {
	case OpError:
		return "error"
	case OpMapGet:
		return "map.get"
	case OpMapPut:
		return "map.put"
	case OpMapPutIfAbsent:
		return "map.putIfAbsent"
	case OpMapRemove:
		return "map.remove"
	case OpMapContainsKey:
		return "map.containsKey"
	case OpMapSize:
		return "map.size"
	case OpMapIterateKeys:
		return "map.iterateKeys"
	case OpDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// ParseOperation is the inverse of Operation.String
func ParseOperation(s string) (Operation, error) {
	for op := OpError; op <= OpDestroy; op++ {
		if op.String() == s {
			return op, nil
		}
	}
	return OpUnknown, fmt.Errorf("unknown operation: %s", s)
}

// MarshalJSON implements the json.Marshaller interface for Operation.
// This allows Operation to be serialized as a string in JSON.
func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for Operation.
// This allows Operation to be deserialized from a string in JSON.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	op, err := ParseOperation(s)
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// --------------------------------------------------------------------------
// Operation Constants
// --------------------------------------------------------------------------

const (
	// General operations

	OpUnknown Operation = iota
	OpError             // Response to a request that could not be processed

	// IMap operations

	OpMapGet         // Get a value by key
	OpMapPut         // Put a key-value pair, returns the previous value
	OpMapPutIfAbsent // Put a key-value pair if the key is absent, returns the existing value
	OpMapRemove      // Remove a key, returns the previous value
	OpMapContainsKey // Check if a key exists
	OpMapSize        // Number of entries
	OpMapIterateKeys // Keys matching a predicate (value holds the predicate, nil for all)

	// Lifecycle operations

	OpDestroy // Destroy the named resource
)
