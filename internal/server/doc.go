// Package server implements the MCP (Model Context Protocol) server for tone
// adjustment tools.
//
// This package provides a JSON-RPC 2.0 server that lets MCP clients open an
// image, adjust its tones step by step, inspect the result and write it out.
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
// Session lifecycle:
//   - tone_open: Load an image and start a new session
//   - tone_reset: Restore the working image to the original
//   - tone_close: Drop the session
//
// Adjustments (applied to the working image, cumulatively):
//   - tone_adjust: Brightness, contrast and saturation factors
//   - tone_auto_level: 2-98 percentile stretch per channel
//   - tone_clahe: Adaptive local contrast
//   - tone_s_curve: Tone curve with fixed black, mid-gray and white
//
// Inspection and output:
//   - tone_histogram: Per-channel histogram, statistics and optional chart
//   - tone_preview: Downscaled base64 PNG of the working or original image
//   - tone_info: File metadata and adjustment history
//   - tone_save: Write the working or original image to disk
//
// # Sessions
//
// Each image path has at most one session. Tools other than tone_open open
// the session on first use; tone_open always starts over from the file.
// A failed adjustment leaves the working image exactly as it was.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 for bad arguments or out-of-range parameters,
//     -32000 for any other tool failure
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
