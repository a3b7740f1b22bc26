package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the state of the vector index",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		info := a.svc.IndexInfo()
		if jsonOutput {
			return printJSON(info)
		}
		fmt.Printf("Index path:   %s\n", info.IndexPath)
		fmt.Printf("Exists:       %t\n", info.IndexExists)
		fmt.Printf("Documents:    %d\n", info.DocumentCount)
		fmt.Printf("Next ID:      %d\n", info.NextID)
		fmt.Printf("Model:        %s\n", info.ModelName)
		if info.LoadError != "" {
			fmt.Printf("Load error:   %s\n", info.LoadError)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
