// Package cmd implements the command-line interface of dGrid. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - maps: Commands for map operations (get, put, keys, destroy, perf, etc.)
//   - query: Commands for filter expressions (parse)
//   - serve: Commands for starting and configuring the dGrid server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dgrid -help for a list of all commands.
package cmd
