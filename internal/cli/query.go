package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thomsbe/MarcLinkFinc/internal/config"
	"github.com/thomsbe/MarcLinkFinc/internal/exit"
	"github.com/thomsbe/MarcLinkFinc/internal/extract"
	"github.com/thomsbe/MarcLinkFinc/internal/marc"
	"github.com/thomsbe/MarcLinkFinc/internal/marcspec"
)

type queryOptions struct {
	format string
	join   string
	limit  int
	raw    bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &queryOptions{format: config.FormatAuto}

	cmd := &cobra.Command{
		Use:   "query <file> <spec>...",
		Short: "Print the values MARC path queries select",
		Long: `Print the values MARC path queries select from every record of a file.

Each output line holds the record control number, the query and one value,
separated by tabs.`,
		Example: `  marc2finc query records.mrc 245ab '650[0]a' '020a:772z:773z'
  marc2finc query records.mrc '600a{$a~Goethe}' --join ' / '`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", opts.format, "source format: auto, iso2709 or mrk")
	cmd.Flags().StringVar(&opts.join, "join", "", "join the values of each field with this separator")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "stop after this many records (0 for all)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "keep surrounding whitespace and empty values")

	return cmd
}

func runQuery(rootOpts *RootOptions, opts *queryOptions, filename string, specs []string, cmd *cobra.Command) error {
	for _, spec := range specs {
		for _, part := range extract.SplitComplex(spec) {
			q, err := marcspec.Parse(part)
			if err != nil {
				return fmt.Errorf("%w: %w", exit.ErrUsage, err)
			}
			if q.Rest != "" {
				return fmt.Errorf("%w: %w: %q: unexpected %q", exit.ErrUsage, marcspec.ErrInvalidSpec, part, q.Rest)
			}
		}
	}

	cfg := &config.Config{Format: opts.format}
	format, err := cfg.SourceFormat(filename)
	if err != nil {
		return fmt.Errorf("%w: %w", exit.ErrUsage, err)
	}

	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	seq, err := marc.Stream(cmd.Context(), f, format)
	if err != nil {
		return err
	}

	x := extract.New(rootOpts.Logger())
	xopts := extract.Options{Join: opts.join, Clean: !opts.raw}
	out := cmd.OutOrStdout()

	n := 0
	for rec, err := range seq {
		if err != nil {
			return fmt.Errorf("%s: record %d: %w", filename, n+1, err)
		}
		n++

		id := rec.ControlValue("001")
		for _, spec := range specs {
			values, err := x.ExtractComplex(rec, xopts, spec)
			if err != nil {
				return err
			}
			for _, v := range values {
				if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n", id, spec, escapeTabs(v)); err != nil {
					return err
				}
			}
		}

		if opts.limit > 0 && n >= opts.limit {
			break
		}
	}

	rootOpts.Logger().Debug("query finished", "file", filename, "records", n)
	return nil
}

var tabReplacer = strings.NewReplacer("\t", `\t`, "\n", `\n`)

func escapeTabs(s string) string {
	return tabReplacer.Replace(s)
}
