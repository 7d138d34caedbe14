package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thomsbe/MarcLinkFinc/internal/schema"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [file]",
		Short: "Print the built-in schema or check a custom one",
		Long: `Without arguments, print the built-in finc schema as YAML; it is a
starting point for custom schemas. With a file argument, validate that schema
and report every problem found.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, err := cmd.OutOrStdout().Write(schema.DefaultSource())
				return err
			}

			s, err := schema.Load(args[0])
			if err != nil {
				return err
			}
			rootOpts.Logger().Debug("schema loaded", "file", args[0], "name", s.Name)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: schema %q is valid (%d slots)\n", args[0], s.Name, len(s.Slots))
			return err
		},
	}

	return cmd
}
