package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chunkstream/internal/config"
	"chunkstream/internal/domain"
	"chunkstream/internal/storage"
)

var (
	version = "dev"
	commit  = "none"
)

// storeOpener creates the destination store for a resolved config.
type storeOpener func(ctx context.Context, cfg *config.Config) (domain.ObjectStore, storage.Location, error)

// Execute runs the CLI.
func Execute() int {
	return execute(newRootCmd(), os.Args[1:])
}

// execute runs rootCmd with args and reports a failure on the command's
// writers: JSON on stdout under --output json, plain text on stderr otherwise.
func execute(rootCmd *cobra.Command, args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(rootCmd.OutOrStdout(), map[string]string{"error": err.Error()})
		} else {
			_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithOpener(storage.Open)
}

func newRootCmdWithOpener(open storeOpener) *cobra.Command {
	var (
		output    string
		profile   string
		logLevel  string
		logFormat string
	)

	rootCmd := &cobra.Command{
		Use:           "chunkstream",
		Short:         "Replay a CSV file into object storage as a paced stream of chunks",
		Long:          "Reads a CSV file in fixed-size chunks and uploads each chunk as its own object, pausing between uploads to simulate a real-time feed.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format for command results (text, json)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto", "Log format (text, json, auto)")

	rootCmd.AddCommand(newStreamCmd(open))
	rootCmd.AddCommand(newCheckCmd(open))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
