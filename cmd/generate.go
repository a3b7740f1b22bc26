package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Acid-base/researcher/internal/research"
)

var (
	generateLimit      int
	generatePromptFile string
)

var generateCmd = &cobra.Command{
	Use:   "generate <query>",
	Short: "Write a cited report from the indexed content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tmpl, err := readPromptFile(generatePromptFile)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.svc.Generate(cmd.Context(), research.GenerateRequest{
			Query:          args[0],
			Limit:          generateLimit,
			PromptTemplate: tmpl,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(result)
		}
		printReport(result)
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVarP(&generateLimit, "limit", "n", 0, "number of chunks given to the model (default from config)")
	generateCmd.Flags().StringVar(&generatePromptFile, "prompt-file", "", "prompt template file containing {context}")
	rootCmd.AddCommand(generateCmd)
}

func readPromptFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt template: %w", err)
	}
	return string(data), nil
}

func printReport(r *research.GenerateResult) {
	fmt.Println(r.Report)
	fmt.Println()
	fmt.Println("Sources:")
	for _, c := range r.Citations {
		fmt.Printf("  %s\n", c)
	}
	if r.SavedTo != "" {
		fmt.Fprintf(os.Stderr, "\nReport %s saved to %s\n", r.ReportID, r.SavedTo)
	}
}
