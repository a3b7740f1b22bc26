package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Acid-base/researcher/internal/audit"
)

var (
	ingestionsStatus string
	ingestionsURL    string
	ingestionsLimit  int
	pruneOlderThan   time.Duration
)

var ingestionsCmd = &cobra.Command{
	Use:   "ingestions",
	Short: "Show the ingestion log of processed URLs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.ingestions.Query(cmd.Context(), audit.QueryFilter{
			URL:    ingestionsURL,
			Status: audit.Status(ingestionsStatus),
			Limit:  ingestionsLimit,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(entries)
		}
		for _, e := range entries {
			detail := fmt.Sprintf("%d chunk(s)", e.Chunks)
			if e.Status == audit.StatusSkipped {
				detail = e.Reason
			}
			fmt.Printf("%s  %-7s  %s  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Status, truncate(e.URL, 70), detail)
		}
		return nil
	},
}

var ingestionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete ingestion log entries older than a duration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ingestions.DeleteBefore(cmd.Context(), time.Now().Add(-pruneOlderThan))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d entries\n", n)
		return nil
	},
}

func init() {
	ingestionsCmd.Flags().StringVar(&ingestionsStatus, "status", "", "filter by status: indexed or skipped")
	ingestionsCmd.Flags().StringVar(&ingestionsURL, "url", "", "filter by URL")
	ingestionsCmd.Flags().IntVarP(&ingestionsLimit, "limit", "n", 50, "maximum number of entries")
	ingestionsPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "age of entries to delete")
	ingestionsCmd.AddCommand(ingestionsPruneCmd)
	rootCmd.AddCommand(ingestionsCmd)
}
