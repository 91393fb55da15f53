package cli

import (
	"context"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/spf13/cobra"

	"chunkstream/internal/source"
	"chunkstream/internal/streamer"
)

func newStreamCmd(open storeOpener) *cobra.Command {
	var settings streamSettings

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Upload the source CSV chunk by chunk",
		Long: "Verifies the destination bucket, then reads the source CSV in chunks and uploads each chunk " +
			"as <prefix>_chunk_<unix-seconds>_<index>.csv, pausing --delay after every upload. " +
			"Any error stops the run; chunks already uploaded are kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, &settings)
			if err != nil {
				return err
			}
			logger := newLogger(logWriter(cmd), cfg)
			for _, w := range cfg.Warnings {
				logger.Warn(w)
			}

			ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, loc, err := open(ctx, cfg)
			if err != nil {
				logger.Error("open destination failed", "destination", cfg.Destination, "error", err)
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					logger.Warn("close destination client", "error", cerr)
				}
			}()

			s := streamer.New(store, source.NewCSVSource(cfg.SourcePath, cfg.ChunkSize), streamer.Options{
				KeyPrefix: cfg.KeyPrefix,
				ObjectDir: path.Join(loc.Prefix, cfg.ObjectDir),
				Delay:     cfg.Delay,
			}, logger.With("region", cfg.Region, "chunk_size", cfg.ChunkSize))

			sum, err := s.Run(ctx)
			if getOutputFormat(cmd) == "json" {
				// A failed run still reports how far it got.
				if perr := printJSON(cmd.OutOrStdout(), sum); perr != nil && err == nil {
					return perr
				}
			}
			return err
		},
	}

	settings.addFlags(cmd.Flags())
	return cmd
}

// runContext is the command context, falling back to Background when cobra
// was invoked without one.
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
