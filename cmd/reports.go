package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Acid-base/researcher/internal/report"
)

var (
	reportsLimit  int
	reportsOutput string
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Browse archived reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived reports, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.reports.List(cmd.Context(), reportsLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(records)
		}
		if len(records) == 0 {
			fmt.Println("No reports yet. Run `researcher generate` or `researcher workflow`.")
			return nil
		}
		fmt.Printf("%-36s  %-16s  %-7s  %s\n", "ID", "CREATED", "SOURCES", "QUERY")
		for _, r := range records {
			fmt.Printf("%-36s  %-16s  %-7d  %s\n", r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"),
				r.SourceCount, truncate(r.Query, 60))
		}
		return nil
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.reports.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(rec)
		}
		fmt.Printf("# %s\n\n%s\n\nSources:\n", rec.Query, rec.Content)
		for _, c := range report.FormatCitations(rec.Citations) {
			fmt.Printf("  %s\n", c)
		}
		return nil
	},
}

var reportsHTMLCmd = &cobra.Command{
	Use:   "html <id>",
	Short: "Render an archived report as a standalone HTML page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.reports.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		page, err := report.RenderHTML(rec.Report())
		if err != nil {
			return err
		}
		if reportsOutput == "" {
			_, err = os.Stdout.Write(page)
			return err
		}
		if err := os.WriteFile(reportsOutput, page, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", reportsOutput, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", reportsOutput)
		return nil
	},
}

func init() {
	reportsListCmd.Flags().IntVarP(&reportsLimit, "limit", "n", 20, "maximum number of reports (0 for all)")
	reportsHTMLCmd.Flags().StringVarP(&reportsOutput, "output", "o", "", "write the page to a file instead of stdout")
	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd, reportsHTMLCmd)
	rootCmd.AddCommand(reportsCmd)
}
