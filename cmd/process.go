package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Acid-base/researcher/internal/progress"
)

var processQuery string

var processCmd = &cobra.Command{
	Use:   "process <url>...",
	Short: "Fetch, extract, chunk and index URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		reporter := progress.NewReporter("Fetching", jsonOutput)
		reporter.Start(len(args))
		result, err := a.svc.Process(cmd.Context(), args, processQuery, progress.Func(reporter))
		reporter.Finish()
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("Indexed %d chunk(s) from %d of %d URL(s)\n",
			result.Chunks, result.IndexedURLs, result.ProcessedURLs)
		for _, s := range result.Skipped {
			fmt.Printf("  skipped %s: %s\n", s.URL, s.Reason)
		}
		fmt.Printf("Index now holds %d document(s)\n", result.IndexInfo.DocumentCount)
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processQuery, "query", "", "research question recorded with each chunk")
	rootCmd.AddCommand(processCmd)
}
