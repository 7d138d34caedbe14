package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/thomsbe/MarcLinkFinc/internal/cli"
	"github.com/thomsbe/MarcLinkFinc/internal/exit"
)

func main() {
	exitCode := run()
	os.Exit(exitCode)
}

func run() int {
	// A .env file in the working directory may set MARC2FINC_* variables.
	if err := godotenv.Overload(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := cli.NewRootCommand().ExecuteContext(ctx)

	result := exit.FromError(err)
	result.Print()
	return result.ExitCode
}
