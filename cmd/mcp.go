package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/clicktrail/internal/control"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <url>",
	Short: "Open a page and expose recording as MCP tools over stdio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0], GetConfig(), logger)
		if err != nil {
			return err
		}
		defer s.Close()

		// Logs go to stderr; stdout carries the protocol.
		return server.ServeStdio(control.NewMCPServer(s.ctl, version))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
