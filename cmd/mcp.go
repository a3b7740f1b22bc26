package cmd

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/Acid-base/researcher/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing retrieval, URL processing and report generation as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		mcpserver.Version = Version
		info := a.svc.IndexInfo()
		a.logger.Info("researcher MCP server started on stdio",
			"index", info.IndexPath, "documents", info.DocumentCount)

		return mcpserver.NewServer(a.svc).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
