package serializer

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/dGrid/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testPackets creates a set of test packets with different fields filled
func testPackets() []common.Packet {
	return []common.Packet{
		// Basic packet with just an operation
		{Operation: common.OpMapSize},

		// Put request
		{
			Name:      "c:users",
			Operation: common.OpMapPut,
			CallerID:  "caller-1",
			Key:       []byte("test-key"),
			Value:     []byte("test-value"),
		},

		// Get response
		{
			Name:      "c:users",
			Operation: common.OpMapGet,
			CallerID:  "caller-1",
			Value:     []byte("test-value"),
		},

		// Iterate keys request without predicate
		{
			Name:      "c:users",
			Operation: common.OpMapIterateKeys,
			CallerID:  "caller-2",
		},

		// Error response
		{
			Operation: common.OpError,
			Err:       "test error message",
		},

		// Packet with all fields filled
		{
			Name:      "c:orders",
			Operation: common.OpMapPutIfAbsent,
			CallerID:  "4b0c3c1e-3c4f-4d0e-9a51-0c1c7d3e8f10",
			Key:       []byte{0, 1, 2, 3},
			Value:     []byte{255, 254, 253},
			Err:       "existing value",
		},
	}
}

// TestSerializerRoundTrip tests that packets can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	packets := testPackets()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range packets {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize packet %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Packet
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize packet %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Packet %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestOperations tests each operation with each serializer
func TestOperations(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each operation (don't test for OpUnknown since json should raise an error)
			for op := common.OpError; op <= common.OpDestroy; op++ {
				msg := common.Packet{Operation: op}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize operation %s: %v", op.String(), err)
					continue
				}

				// Deserialize
				var result common.Packet
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize operation %s: %v", op.String(), err)
					continue
				}

				// Check operation
				if result.Operation != op {
					t.Errorf("Operation doesn't match after round trip: Expected %s, got %s",
						op.String(), result.Operation.String())
				}
			}
		})
	}
}

// TestDeserializeResetsPacket tests that a reused packet does not keep stale fields
func TestDeserializeResetsPacket(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			data, err := serializer.Serialize(common.Packet{Operation: common.OpMapSize})
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			result := common.Packet{
				Name:      "stale",
				Operation: common.OpMapPut,
				Key:       []byte("stale"),
				Value:     []byte("stale"),
				Err:       "stale",
			}
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if !reflect.DeepEqual(common.Packet{Operation: common.OpMapSize}, result) {
				t.Errorf("Stale fields after deserialization: %+v", result)
			}
		})
	}
}

// TestAbsentAndEmptyPayloads tests that nil and empty payloads stay apart
// (gob is excluded since it does not transmit empty slices)
func TestAbsentAndEmptyPayloads(t *testing.T) {
	for _, name := range []string{"JSON", "Binary"} {
		t.Run(name, func(t *testing.T) {
			serializer := testSerializers[name]()

			msg := common.Packet{
				Operation: common.OpMapPut,
				Key:       []byte{},
				Value:     nil,
			}
			data, err := serializer.Serialize(msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Packet
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if result.Key == nil || len(result.Key) != 0 {
				t.Errorf("Expected empty non-nil key, got %#v", result.Key)
			}
			if result.Value != nil {
				t.Errorf("Expected absent value, got %#v", result.Value)
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1}, // Only operation, no flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0}, // Operation 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for name",
			data:        []byte{1, 1, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims name length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid length for value",
			data:        []byte{1, 8, 0, 0, 0, 10}, // Claims value length 10 but no bytes provided
			expectError: true,
		},
		{
			name:        "Trailing bytes",
			data:        []byte{1, 0, 42},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Packet
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}
