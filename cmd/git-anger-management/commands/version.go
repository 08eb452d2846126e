package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sondr3/git-anger-management/pkg/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String(binaryName))
		},
	}
}
