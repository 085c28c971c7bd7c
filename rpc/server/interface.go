package server

import (
	"github.com/ValentinKolb/dGrid/lib/store"
	"github.com/ValentinKolb/dGrid/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a Packet and the store of the addressed resource as parameters.
	// It returns a Packet as a response
	// If an error occurs, it should be set in the response
	Handle(req *common.Packet, store store.IMapStore) (resp *common.Packet)
}
