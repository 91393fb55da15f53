package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"chunkstream/internal/config"
)

// streamSettings holds the flag values shared by the stream and check commands.
type streamSettings struct {
	destination string
	source      string
	region      string
	endpoint    string
	chunkSize   int
	delay       time.Duration
	keyPrefix   string
	objectDir   string
}

func (s *streamSettings) addFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&s.destination, "destination", "d", "", "Destination bucket (s3://bucket[/prefix], gs://bucket, az://container)")
	flags.StringVarP(&s.source, "source", "s", "", "Path to the source CSV file (default transactions.csv)")
	flags.StringVar(&s.region, "region", "", "Object storage region (default us-east-1)")
	flags.StringVar(&s.endpoint, "endpoint", "", "Custom S3-compatible endpoint")
	flags.IntVar(&s.chunkSize, "chunk-size", config.DefaultChunkSize, "Max data rows per uploaded object")
	flags.DurationVar(&s.delay, "delay", config.DefaultDelay, "Pause after each upload")
	flags.StringVar(&s.keyPrefix, "key-prefix", config.DefaultKeyPrefix, "Object key prefix")
	flags.StringVar(&s.objectDir, "object-dir", "", "Path prefix for object keys inside the bucket")
}

// resolveConfig builds the run configuration.
// Precedence: flag > env > profile > default.
func resolveConfig(cmd *cobra.Command, s *streamSettings) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	profileName, _ := cmd.Root().PersistentFlags().GetString("profile")
	userCfg, err := loadOrEmptyUserConfig()
	if err != nil {
		return nil, err
	}
	p, err := userCfg.ActiveProfile(profileName)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(cfg); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	applyFlags(cmd, cfg, s)
	if cmd.Root().PersistentFlags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Root().PersistentFlags().GetString("log-level")
	}
	if cmd.Root().PersistentFlags().Changed("log-format") {
		cfg.LogFormat, _ = cmd.Root().PersistentFlags().GetString("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, s *streamSettings) {
	flags := cmd.Flags()
	if flags.Changed("destination") {
		cfg.Destination = s.destination
	}
	if flags.Changed("source") {
		cfg.SourcePath = s.source
	}
	if flags.Changed("region") {
		cfg.Region = s.region
	}
	if flags.Changed("endpoint") {
		cfg.S3.Endpoint = s.endpoint
		cfg.S3.UsePathStyle = true
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = s.chunkSize
	}
	if flags.Changed("delay") {
		cfg.Delay = s.delay
	}
	if flags.Changed("key-prefix") {
		cfg.KeyPrefix = s.keyPrefix
	}
	if flags.Changed("object-dir") {
		cfg.ObjectDir = s.objectDir
	}
}
