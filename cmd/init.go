package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Acid-base/researcher/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize researcher configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the report model, embeddings, search endpoint and chunking, and writes a .researcher.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
