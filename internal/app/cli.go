package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"blocks/internal/config"
	mcpserver "blocks/internal/mcp"
	"blocks/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	envFile string
	verbose bool

	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Block group query API and block list editor",
	Long: `blocks serves localized block groups over HTTP and exposes a block
list editor to AI agents over MCP.

Configuration is read from BLOCKS_* environment variables, optionally
loaded from an env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := config.LoadEnvFile(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || envFile != "" {
				return err
			}
			logger.Debug("config: no .env file")
		}
		cfg, err = config.FromEnv()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the block group HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		a, err := New(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ServeHTTP(ctx)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		notifier := &mcpserver.Notifier{}
		a, err := New(ctx, cfg, logger, service.MultiEmitter{service.LogEmitter{Log: logger}, notifier})
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ServeMCP(ctx, notifier)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [dir]",
	Short: "Import block groups from a directory of JSON seed files",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dir string
		if len(args) == 1 {
			dir = args[0]
		}
		a, err := New(cmd.Context(), cfg, logger, nil)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ImportSeeds(cmd.Context(), dir)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file to load (default: .env when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
