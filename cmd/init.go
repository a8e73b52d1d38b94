package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tbessias/modkit/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize modkit configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure modkit and generates a .modkit.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
