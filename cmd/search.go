package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Acid-base/researcher/internal/search"
)

var searchReq search.Request

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the web through SearXNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		req := searchReq
		req.Query = args[0]
		resp, err := a.svc.Search(cmd.Context(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(resp)
		}
		if len(resp.Results) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		for i, r := range resp.Results {
			fmt.Printf("%2d. %s\n    %s\n", i+1, truncate(r.Title, 80), r.URL)
			if r.Content != "" {
				fmt.Printf("    %s\n", truncate(r.Content, 120))
			}
		}
		if resp.Excluded > 0 {
			fmt.Printf("\n%d result(s) excluded by search.exclude\n", resp.Excluded)
		}
		return nil
	},
}

func init() {
	addSearchFlags(searchCmd, &searchReq)
	rootCmd.AddCommand(searchCmd)
}

func addSearchFlags(cmd *cobra.Command, req *search.Request) {
	cmd.Flags().StringVar(&req.Categories, "categories", "", "comma-separated SearXNG categories (default from config)")
	cmd.Flags().StringVar(&req.Engines, "engines", "", "comma-separated SearXNG engines")
	cmd.Flags().StringVar(&req.Language, "language", "", "result language (default from config)")
	cmd.Flags().StringVar(&req.TimeRange, "time-range", "", "day, month or year")
}
