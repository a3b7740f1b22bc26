package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var retrieveLimit int

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <query>",
	Short: "Show the indexed chunks most relevant to a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.svc.Retrieve(cmd.Context(), args[0], retrieveLimit)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(results)
		}
		if len(results) == 0 {
			fmt.Println("No relevant chunks found. Run `researcher process` first.")
			return nil
		}
		fmt.Printf("%-6s %-40s %-7s %s\n", "SCORE", "TITLE", "CHUNK", "URL")
		fmt.Printf("%-6s %-40s %-7s %s\n", "-----", "-----", "-----", "---")
		for _, r := range results {
			chunk := fmt.Sprintf("%d/%d", r.Metadata.ChunkIndex, r.Metadata.TotalChunks)
			fmt.Printf("%-6.3f %-40s %-7s %s\n", r.Score, truncate(r.Metadata.Title, 40), chunk, r.Metadata.URL)
		}
		return nil
	},
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveLimit, "limit", "n", 0, "maximum number of chunks (default from config)")
	rootCmd.AddCommand(retrieveCmd)
}
