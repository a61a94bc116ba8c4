package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/containerd/log"
	units "github.com/docker/go-units"
	"github.com/ntnmrndn/tarte/lib"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type extractOptions struct {
	bufferSize string
	logLevel   string
	progress   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCommand builds the command-line interface
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tarte",
		Short:         "Streaming tar extractor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExtractCommand())
	return root
}

// newExtractCommand handles the extract operation
func newExtractCommand() *cobra.Command {
	var opts extractOptions
	cmd := &cobra.Command{
		Use:     "extract ARCHIVE [DEST]",
		Aliases: []string{"x"},
		Short:   "Extract a tar archive, or - for stdin, into DEST (default: current directory)",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := "."
			if len(args) == 2 {
				dest = args[1]
			}
			return runExtract(cmd.Context(), cmd.InOrStdin(), args[0], dest, opts)
		},
	}
	installExtractFlags(cmd.Flags(), &opts)
	return cmd
}

func installExtractFlags(flags *pflag.FlagSet, opts *extractOptions) {
	flags.StringVar(&opts.bufferSize, "buffer-size", units.BytesSize(lib.DefaultBufferSize), "Size of the parsing window")
	flags.StringVar(&opts.logLevel, "log-level", "info", `Set the logging level ("debug"|"info"|"warn"|"error"|"fatal")`)
	flags.BoolVar(&opts.progress, "progress", true, "Report extraction progress")
}

func setupLogging(level string) error {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log.SetLevel(level)
}

// coreOptions converts command-line flags to extraction options
func (opts extractOptions) coreOptions(total uint64) (*lib.Options, error) {
	size, err := units.RAMInBytes(opts.bufferSize)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --buffer-size")
	}
	if size < lib.BlockSize {
		return nil, errors.Errorf("invalid --buffer-size: must be at least %d bytes", lib.BlockSize)
	}
	o := &lib.Options{BufferSize: int(size)}
	if opts.progress {
		o.Progress = lib.NewProgress(total)
	}
	return o, nil
}

func runExtract(ctx context.Context, stdin io.Reader, archive, dest string, opts extractOptions) error {
	if err := setupLogging(opts.logLevel); err != nil {
		return err
	}

	var total uint64
	if archive != "-" {
		info, err := os.Stat(archive)
		if err != nil {
			return err
		}
		total = uint64(info.Size())
	}
	o, err := opts.coreOptions(total)
	if err != nil {
		return err
	}

	o.Progress.Start(ctx)
	defer o.Progress.Stop()

	logger := log.G(ctx).WithFields(log.Fields{"archive": archive, "dest": dest})
	logger.Debug("extracting archive")
	if archive == "-" {
		err = lib.ExtractReader(ctx, stdin, dest, o)
	} else {
		err = lib.ExtractFile(ctx, archive, dest, o)
	}
	if err != nil {
		if lib.IsFormatError(err) {
			return errors.Wrapf(err, "%s is not a valid tar archive", archive)
		}
		return err
	}
	logger.Info("extraction complete")
	return nil
}
