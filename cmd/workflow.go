package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Acid-base/researcher/internal/progress"
	"github.com/Acid-base/researcher/internal/research"
	"github.com/Acid-base/researcher/internal/search"
)

var (
	workflowSearch     search.Request
	workflowMaxURLs    int
	workflowPromptFile string
)

var workflowCmd = &cobra.Command{
	Use:   "workflow <query>",
	Short: "Search, process the top results and write a cited report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tmpl, err := readPromptFile(workflowPromptFile)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		reporter := progress.NewReporter("Fetching", jsonOutput)
		started := false
		onProgress := func(done, total int, url string) {
			if !started {
				reporter.Start(total)
				started = true
			}
			reporter.Update(done, url)
		}

		result, err := a.svc.Workflow(cmd.Context(), research.WorkflowRequest{
			Query:          args[0],
			MaxURLs:        workflowMaxURLs,
			Categories:     workflowSearch.Categories,
			Engines:        workflowSearch.Engines,
			Language:       workflowSearch.Language,
			TimeRange:      workflowSearch.TimeRange,
			PromptTemplate: tmpl,
		}, onProgress)
		if started {
			reporter.Finish()
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(result)
		}
		fmt.Fprintf(os.Stderr, "Processed %d URL(s), indexed %d chunk(s)\n", result.URLsProcessed, result.ChunksIndexed)
		for _, s := range result.Skipped {
			fmt.Fprintf(os.Stderr, "  skipped %s: %s\n", s.URL, s.Reason)
		}
		fmt.Fprintln(os.Stderr)
		printReport(&result.GenerateResult)
		return nil
	},
}

func init() {
	addSearchFlags(workflowCmd, &workflowSearch)
	workflowCmd.Flags().IntVar(&workflowMaxURLs, "max-urls", 0, "number of search results to process (default from config)")
	workflowCmd.Flags().StringVar(&workflowPromptFile, "prompt-file", "", "prompt template file containing {context}")
	rootCmd.AddCommand(workflowCmd)
}
