package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relink-tools/relink/pkg/runtime"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Long:  `Print version info`,

	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relink version: %s commit: %s built at: %s\n", runtime.Version, runtime.GitCommit, runtime.Timestamp)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
