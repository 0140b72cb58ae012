package cmd

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/calchat/internal/tools"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Expose the calendar tools to MCP clients over stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout offering the
schedule_calendar_event and list_calendar_events tools, so that any MCP
capable assistant can drive your calendar. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			return runStdioServer(newMCPServer(a.tools))
		},
	}
}

// newMCPServer creates an MCP server offering the registry's tools.
func newMCPServer(registry *tools.Registry) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("calchat", version,
		mcpserver.WithToolCapabilities(true),
	)
	registry.RegisterMCP(mcpSrv)
	return mcpSrv
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
