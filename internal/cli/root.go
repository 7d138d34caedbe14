package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thomsbe/MarcLinkFinc/internal/config"
	"github.com/thomsbe/MarcLinkFinc/internal/exit"
	"github.com/thomsbe/MarcLinkFinc/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	LogConfig string
	LogLevel  string

	logger *slog.Logger
}

// Logger returns the logger built for the running command.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return logging.Discard()
	}
	return o.logger
}

// NewRootCommand creates the root command for marc2finc.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "marc2finc",
		Short: "Convert MARC21 records to finc documents",
		Long: `Convert MARC21 records to finc JSON Lines documents.

Slots of the output document are filled by MARC path queries such as
245ab, 650[0]a{$a~^Lyr}/0-4 or 020a:772z:773z, as described by a YAML schema.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.newLogger(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", exit.ErrUsage, err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&opts.LogConfig, "log-config", "", "path to a logging TOML file (default ./"+logging.DefaultFile+")")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

func (o *RootOptions) newLogger(stdout, stderr io.Writer) (*slog.Logger, error) {
	path := o.LogConfig
	if path == "" {
		path, _ = os.LookupEnv(config.EnvLogConfig)
	}

	cfg, err := logging.Load(path)
	if err != nil {
		return nil, err
	}

	level := o.LogLevel
	if level == "" {
		level, _ = os.LookupEnv(config.EnvLogLevel)
	}
	switch {
	case o.Verbose:
		cfg.Level = "debug"
	case level != "":
		cfg.Level = level
	}

	logger, err := logging.New(cfg, stdout, stderr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", exit.ErrUsage, err)
	}
	return logger, nil
}
