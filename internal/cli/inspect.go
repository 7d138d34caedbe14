package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thomsbe/MarcLinkFinc/internal/exit"
	"github.com/thomsbe/MarcLinkFinc/internal/finc"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file.jsonl> <jsonpath>",
		Short: "Query converted documents with JSONPath",
		Long: `Evaluate a JSONPath expression against every document of a finc
JSON Lines file and print the matches with their line numbers.`,
		Example:       `  marc2finc inspect finc.jsonl '$[?@.isbn].title'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runInspect(rootOpts *RootOptions, filename, expr string, cmd *cobra.Command) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	seq, err := finc.SelectLines(cmd.Context(), f, expr)
	if err != nil {
		return fmt.Errorf("%w: %w", exit.ErrUsage, err)
	}

	out := cmd.OutOrStdout()
	matches := 0
	for m, err := range seq {
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		for _, v := range m.Values {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "%d\t%s\n", m.Line, data); err != nil {
				return err
			}
			matches++
		}
	}

	rootOpts.Logger().Debug("inspect finished", "file", filename, "matches", matches)
	return nil
}
