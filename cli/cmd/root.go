package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scaffold-labs/musicsearch/cli/internal/config"
	"github.com/scaffold-labs/musicsearch/cli/pkg/output"
)

// Version is overridden at build time with -ldflags "-X .../cli/cmd.Version=...".
var Version = "0.1.0"

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "msearch",
	Short: "Music search from the terminal",
	Long: `msearch queries the music search API and prints the raw outcome of each
request: status, size, timing and the JSON payload, or the failure kind.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}
	},
}

func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command, printing any error to stderr.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		output.NewWithWriters(os.Stdout, os.Stderr).Error("%v", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.msearch/config.yaml)")
	rootCmd.PersistentFlags().String("output", "", "output format: table, json, yaml (default from config)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

func printer(cmd *cobra.Command) *output.Printer {
	return output.NewWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// outputFormat returns --output, falling back to the config file.
func outputFormat(cmd *cobra.Command) (string, error) {
	f, _ := cmd.Flags().GetString("output")
	if f == "" {
		f = cfg.Output
	}
	return output.ParseFormat(f)
}
