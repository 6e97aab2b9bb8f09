// Package service holds the cmsgo command line: the two HTTP front-ends and
// the badger maintenance commands.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cmsgo/app/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"pkt.systems/pslog"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

type rootOptions struct {
	configPath string
	envFile    string
}

// Main runs the CLI and returns the process exit code.
func Main(ctx context.Context, args []string) int {
	baseLogger := pslog.LoggerFromEnv(context.Background(),
		pslog.WithEnvPrefix("CMSGO_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "cmsgo")

	cmd := NewRootCommand(baseLogger)
	cmd.SetArgs(args)
	ctx = withSignalCancel(ctx)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		return 1
	}
	return 0
}

// NewRootCommand assembles every subcommand.
func NewRootCommand(logger pslog.Logger) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "cmsgo",
		Short:         "Posts CMS with a public site and an admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.SetNormalizeFunc(dashedFlags)
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultConfigFile, "path to the TOML config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	cmd.AddCommand(
		newServeCommand(opts, logger, frontSite),
		newServeCommand(opts, logger, frontAdmin),
		newServeCommand(opts, logger, frontBoth),
		newInitCommand(opts, logger),
		newCleanCommand(opts, logger),
		newBackupCommand(opts, logger),
		newRestoreCommand(opts, logger),
		newVersionCommand(),
	)
	return cmd
}

// loadConfig reads the config and applies its log level to logger. A missing
// default config file falls back to defaults plus environment.
func (o *rootOptions) loadConfig(cmd *cobra.Command, logger pslog.Logger) (*config.Config, pslog.Logger, error) {
	path := o.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path, o.envFile)
	if err != nil {
		return nil, nil, err
	}
	if level, ok := pslog.ParseLevel(cfg.LogLevel); ok {
		logger = logger.LogLevel(level)
	}
	return cfg, logger, nil
}

// dashedFlags lets --env_file and --env-file name the same flag, matching the
// snake_case keys of the config file.
func dashedFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cmsgo version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cmsgo version %s\n", Version)
			return err
		},
	}
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}
