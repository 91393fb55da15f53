package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"chunkstream/internal/source"
	"chunkstream/internal/streamer"
)

func newCheckCmd(open storeOpener) *cobra.Command {
	var settings streamSettings

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the destination bucket and source file without uploading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, &settings)
			if err != nil {
				return err
			}
			logger := newLogger(logWriter(cmd), cfg)
			ctx := runContext(cmd)

			store, _, err := open(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			src := source.NewCSVSource(cfg.SourcePath, cfg.ChunkSize)
			s := streamer.New(store, src, streamer.Options{}, logger)
			if err := s.Preflight(ctx); err != nil {
				return err
			}
			if err := src.Check(); err != nil {
				logger.Error("source check failed", "path", cfg.SourcePath, "error", err)
				return err
			}
			logger.Info("source verified", "path", cfg.SourcePath)

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"status":      "ok",
					"destination": store.Destination(),
					"source":      cfg.SourcePath,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "OK: %s reachable, %s readable\n", store.Destination(), cfg.SourcePath)
			return nil
		},
	}

	settings.addFlags(cmd.Flags())
	return cmd
}
