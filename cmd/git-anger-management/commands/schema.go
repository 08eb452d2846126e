package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sondr3/git-anger-management/internal/render"
)

func newSchemaCommand() *cobra.Command {
	var validate string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the --json report",
		Long: `Print the JSON schema describing the report written by --json.

With --validate, check a saved report against the schema instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if validate == "" {
				_, err := cmd.OutOrStdout().Write(render.Schema())
				if err != nil {
					return fmt.Errorf("write schema: %w", err)
				}

				return nil
			}

			document, err := os.ReadFile(validate)
			if err != nil {
				return fmt.Errorf("read report: %w", err)
			}

			err = render.Validate(document)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", validate)

			return nil
		},
	}

	cmd.Flags().StringVar(&validate, "validate", "", "JSON report file to validate")

	return cmd
}
