package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"shortscout/internal/mcptools"
)

func newMCPCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pipeline as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := ctx.pipelineRuntime(cmd.Context())
			if err != nil {
				return err
			}
			server := mcptools.NewServer(version, mcptools.Deps{
				Controller:  runtime.Controller,
				Transcripts: runtime.Transcript,
			})
			ctx.loggerFor().Info("mcp server starting on stdio")
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
