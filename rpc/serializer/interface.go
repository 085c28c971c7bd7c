package serializer

import "github.com/ValentinKolb/dGrid/rpc/common"

// IRPCSerializer is the interface for all Packet Serializers
type IRPCSerializer interface {
	// Serialize serializes a Packet into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(msg common.Packet) ([]byte, error)
	// Deserialize deserializes a byte array into a Packet
	// It takes a byte array and a pointer to a Packet as parameters
	// It returns an error if any
	Deserialize(b []byte, msg *common.Packet) error
}
