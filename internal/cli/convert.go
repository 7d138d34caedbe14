package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thomsbe/MarcLinkFinc/internal/config"
	"github.com/thomsbe/MarcLinkFinc/internal/convert"
	"github.com/thomsbe/MarcLinkFinc/internal/exit"
	"github.com/thomsbe/MarcLinkFinc/internal/formatter/stdout"
)

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "convert -s <source>... -t <target>",
		Short: "Convert MARC files into one finc JSON Lines file",
		Long: `Convert MARC files into one finc JSON Lines file.

Sources are read in order; records are decoded as ISO 2709 unless the file
ends in .mrk or .txt, or --format says otherwise. The target extension is
replaced by .jsonl. Records that violate the schema are logged and skipped.`,
		Example: `  marc2finc convert -s records.mrc -t finc
  marc2finc convert -s a.mrc -s b.mrk -t out/finc.jsonl --workers 4`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Sources = append(cfg.Sources, args...)
			cfg.ApplyEnv(os.LookupEnv)
			return runConvert(rootOpts, cfg, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&cfg.Sources, "source", "s", nil, "MARC source file (repeatable)")
	cmd.Flags().StringVarP(&cfg.Target, "target", "t", "", "output name, written as <name>.jsonl")
	cmd.Flags().StringVar(&cfg.Schema, "schema", "", "YAML schema file (default built-in finc schema, env "+config.EnvSchema+")")
	cmd.Flags().StringVar(&cfg.Format, "format", cfg.Format, "source format: auto, iso2709 or mrk")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "number of records mapped concurrently")
	cmd.Flags().DurationVar(&cfg.Progress, "progress", cfg.Progress, "interval between progress logs (0 disables)")
	cmd.Flags().Float64Var(&cfg.RateLimit, "rate-limit", 0, "records per second (0 for unlimited)")

	return cmd
}

func runConvert(opts *RootOptions, cfg *config.Config, cmd *cobra.Command) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", exit.ErrUsage, err)
	}

	c, err := convert.New(cfg, opts.Logger())
	if err != nil {
		return err
	}

	summary, runErr := c.Run(cmd.Context())
	if summary != nil {
		if err := stdout.NewWithWriter(cmd.OutOrStdout()).Format(summary); err != nil {
			return err
		}
	}
	return runErr
}
