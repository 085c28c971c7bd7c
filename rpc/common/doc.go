// Package common provides core data structures and utilities shared across
// the RPC layer of the data grid client and its members.
//
// The package focuses on:
//   - The operation descriptor (Packet) exchanged between client and member
//   - Configuration structures for client and server components
//   - Custom logging implementation based on the Dragonboat logger package
//
// Key Components:
//
//   - Packet: Core data structure for all RPC communication. A request names the
//     target resource, the operation, the calling logical thread and the encoded
//     key and value. Responses reuse the structure and report failures in Err.
//     Includes factory functions for requests, responses and error responses.
//
//   - Operation: Enumeration of all supported remote operations, rendered as dotted
//     names ("map.get", "destroy") in logs and JSON.
//
//   - ServerConfig / ClientConfig: Timeouts, logging, metrics and transport settings
//     (endpoints, retries, connection pools, socket and TCP options).
//
//   - Logger: Custom implementation of the Dragonboat logger.ILogger interface
//     providing consistent formatting across the application.
package common
