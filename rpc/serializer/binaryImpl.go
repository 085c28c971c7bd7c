package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dGrid/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasName   byte = 1 << 0
	hasCaller byte = 1 << 1
	hasKey    byte = 1 << 2
	hasValue  byte = 1 << 3
	hasErr    byte = 1 << 4
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Packet) ([]byte, error) {
	// Calculate total size needed
	result := make([]byte, 2, b.sizeBytes(msg))

	// Write operation, the flags byte is set at the end
	result[0] = byte(msg.Operation)
	var flags byte = 0

	if msg.Name != "" {
		flags |= hasName
		result = appendField(result, []byte(msg.Name))
	}
	if msg.CallerID != "" {
		flags |= hasCaller
		result = appendField(result, []byte(msg.CallerID))
	}
	// nil and empty key/value are different: only nil is absent
	if msg.Key != nil {
		flags |= hasKey
		result = appendField(result, msg.Key)
	}
	if msg.Value != nil {
		flags |= hasValue
		result = appendField(result, msg.Value)
	}
	if msg.Err != "" {
		flags |= hasErr
		result = appendField(result, []byte(msg.Err))
	}

	result[1] = flags
	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Packet) error {
	// Check minimum size (Operation + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for packet header")
	}

	msg.Operation = common.Operation(data[0])
	flags := data[1]
	pos := 2

	// readField returns the next length prefixed field, or nil if the flag is not set
	readField := func(flag byte, name string) ([]byte, error) {
		if flags&flag == 0 {
			return nil, nil
		}
		if pos+4 > len(data) {
			return nil, fmt.Errorf("data too short for %s length", name)
		}
		n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if n < 0 || pos+n > len(data) {
			return nil, fmt.Errorf("data too short for %s data", name)
		}
		field := make([]byte, n)
		copy(field, data[pos:pos+n])
		pos += n
		return field, nil
	}

	name, err := readField(hasName, "name")
	if err != nil {
		return err
	}
	caller, err := readField(hasCaller, "caller")
	if err != nil {
		return err
	}
	if msg.Key, err = readField(hasKey, "key"); err != nil {
		return err
	}
	if msg.Value, err = readField(hasValue, "value"); err != nil {
		return err
	}
	errMsg, err := readField(hasErr, "error")
	if err != nil {
		return err
	}

	msg.Name = string(name)
	msg.CallerID = string(caller)
	msg.Err = string(errMsg)

	if pos != len(data) {
		return fmt.Errorf("unexpected %d trailing bytes", len(data)-pos)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// appendField writes a 4 byte length followed by the data
func appendField(buf, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Packet) int {
	// 1 byte for Operation + 1 byte for flags
	size := 2

	// Add sizes for fields that require length encoding
	if msg.Name != "" {
		size += 4 + len(msg.Name)
	}
	if msg.CallerID != "" {
		size += 4 + len(msg.CallerID)
	}
	if msg.Key != nil {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}

	return size
}
