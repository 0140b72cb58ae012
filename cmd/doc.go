// Package cmd implements the command-line interface for calchat.
//
// This package provides the following commands:
//   - chat: Talk to the scheduling agent in the terminal
//   - web: Serve the browser chat interface
//   - auth: Obtain and persist Google credentials
//   - check: Verify calendar access and show upcoming events
//   - export: Write this month's events as an iCalendar file
//   - mcp: Expose the calendar tools to MCP clients over stdio
//   - generate-docs: Generate markdown documentation for the tools
//   - version: Display version information
//
// The chat command is the default command when no subcommand is specified.
package cmd
