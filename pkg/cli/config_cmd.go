package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration profiles",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetProfileCmd())
	cmd.AddCommand(newConfigUseProfileCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the profile configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no configuration found at %s: %w", ConfigPath(), err)
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigSetProfileCmd() *cobra.Command {
	var (
		name     string
		p        Profile
		delayStr string
	)

	cmd := &cobra.Command{
		Use:   "set-profile",
		Short: "Create or update a configuration profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if cmd.Flags().Changed("delay") {
				if _, err := time.ParseDuration(delayStr); err != nil {
					return fmt.Errorf("invalid --delay: %w", err)
				}
			}
			if cmd.Flags().Changed("chunk-size") && p.ChunkSize <= 0 {
				return fmt.Errorf("--chunk-size must be positive")
			}

			cfg, err := loadOrEmptyUserConfig()
			if err != nil {
				return err
			}

			cur := cfg.Profiles[name]
			flags := cmd.Flags()
			if flags.Changed("destination") {
				cur.Destination = p.Destination
			}
			if flags.Changed("source") {
				cur.Source = p.Source
			}
			if flags.Changed("region") {
				cur.Region = p.Region
			}
			if flags.Changed("endpoint") {
				cur.Endpoint = p.Endpoint
			}
			if flags.Changed("chunk-size") {
				cur.ChunkSize = p.ChunkSize
			}
			if flags.Changed("delay") {
				cur.Delay = delayStr
			}
			if flags.Changed("key-prefix") {
				cur.KeyPrefix = p.KeyPrefix
			}
			if flags.Changed("object-dir") {
				cur.ObjectDir = p.ObjectDir
			}
			cfg.Profiles[name] = cur

			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"status":  "ok",
					"profile": name,
					"path":    ConfigPath(),
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved to %s\n", name, ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Profile name (required)")
	cmd.Flags().StringVar(&p.Destination, "destination", "", "Destination bucket URI")
	cmd.Flags().StringVar(&p.Source, "source", "", "Source CSV path")
	cmd.Flags().StringVar(&p.Region, "region", "", "Object storage region")
	cmd.Flags().StringVar(&p.Endpoint, "endpoint", "", "Custom S3-compatible endpoint")
	cmd.Flags().IntVar(&p.ChunkSize, "chunk-size", 0, "Max data rows per object")
	cmd.Flags().StringVar(&delayStr, "delay", "", "Pause after each upload, e.g. 1s")
	cmd.Flags().StringVar(&p.KeyPrefix, "key-prefix", "", "Object key prefix")
	cmd.Flags().StringVar(&p.ObjectDir, "object-dir", "", "Path prefix for object keys")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Set the active configuration profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no config found: %w", err)
			}
			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found", name)
			}
			cfg.CurrentProfile = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"status":         "ok",
					"active_profile": name,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Active profile set to %q\n", name)
			return nil
		},
	}
}
