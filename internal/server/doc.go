// Package server implements the MCP (Model Context Protocol) server for
// floor-plan extraction.
//
// The server exposes the occupancy-grid pipeline as tools so an MCP client
// can inspect a map and pull wall segments from it without running a batch.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - map_info: Dimensions, format and size of a map raster
//   - map_classify: Occupied / unknown / free cell counts
//   - floorplan_edges: Canny edge map as base64 PNG
//   - floorplan_extract: Wall segments, length summary, optional vector document
//
// # Map Caching
//
// Decoded rasters are cached by path for the lifetime of the process.
// Calibration files are small and re-read on every call.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, which names the error kind
//
// # Usage
//
//	srv := server.New(cfg, log)
//	if err := srv.Run(); err != nil {
//	    log.Fatal().Err(err).Msg("server stopped")
//	}
package server
