package client

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc/client")
)

// checkResponse checks if the response is an error response and if the operation
// of the response is the operation of the request
func checkResponse(req, resp *common.Packet) error {
	if resp == nil {
		return fmt.Errorf("empty response")
	}

	// Check if the response is an error response
	if resp.Operation == common.OpError || resp.Err != "" {
		return &RemoteError{Message: resp.Err}
	}

	// Check if the operation of the response is the expected operation
	if resp.Operation != req.Operation {
		return fmt.Errorf("unexpected operation in response: %s, expected %s", resp.Operation, req.Operation)
	}

	return nil
}

// --------------------------------------------------------------------------
// Caller Identity
// --------------------------------------------------------------------------

type callerIDKey struct{}

// WithCallerID attaches the identifier of the calling task to ctx.
// Requests issued with that context carry the id to the server for diagnostics.
func WithCallerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callerIDKey{}, id)
}

// callerID returns the caller id of ctx or fallback if none is attached
func callerID(ctx context.Context, fallback string) string {
	if id, ok := ctx.Value(callerIDKey{}).(string); ok && id != "" {
		return id
	}
	return fallback
}
