package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/kmerclust/logger"
	"github.com/yumyai/kmerclust/pkg/config"
)

const VERSION = "0.1.0"

func main() {

	root := NewRootCommand()

	err := root.Execute()
	_ = logger.Sync() // Make sure that the buffered is flushed.
	if err != nil {
		os.Exit(1)
	}
}

// options shared by every subcommand
type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

func NewRootCommand() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "kmerclust",
		Short: "Single-pass clustering of read k-mers within Hamming distance 1",
		Long: `kmerclust takes one fixed window k-mer from every read and clusters it
against the running consensus of earlier clusters. A k-mer joins the first
cluster whose representative is within one substitution; otherwise it starts
a new cluster. Results depend on input order.`,
		SilenceUsage: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "TOML config file")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file with KMERCLUST_* settings")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newClusterCommand(&g))
	root.AddCommand(newShowCommand(&g))
	root.AddCommand(newServeCommand(&g))
	root.AddCommand(versionCommand())
	return root
}

// loadConfig layers defaults, the config file, the environment and finally
// the log level flag, then starts the logger.
func loadConfig(g *globalFlags) (*config.Config, error) {

	// Try load env
	dotenvLoaded := config.LoadDotenv(g.envFile)

	conf := config.Default()
	if g.configPath != "" {
		var err error
		if conf, err = config.LoadFile(g.configPath); err != nil {
			return nil, err
		}
	}
	if err := conf.ApplyEnv(); err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		conf.LogLevel = g.logLevel
	}

	if err := logger.InitLogger(logger.ParseLevel(conf.LogLevel)); err != nil {
		return nil, err
	}
	if !dotenvLoaded {
		logger.Debug("No .env found, using local environment", zap.String("env_file", g.envFile))
	}
	return conf, nil
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kmerclust version %s\n", VERSION)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
