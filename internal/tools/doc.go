// Package tools declares the calendar tools offered to the language model
// and to MCP clients, and dispatches invocations to the calendar client.
//
// The set of tools is closed: each is identified by a Name and declared once
// as an mcp.Tool whose input schema is shared by both front doors. Every
// invocation yields a JSON result payload. Failures, including malformed
// arguments, are reported inside the payload rather than as Go errors so the
// model can relay them to the user.
package tools
