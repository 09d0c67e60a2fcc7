// Package cmd provides the command-line interface for abacus.
//
// Configuration System:
//
//	Values are resolved with the following precedence:
//	1. Command-line flags (--url, --port, --log-level, etc.) - highest priority
//	2. Individual environment variables (ABACUS_SERVER_PORT, etc.)
//	3. The configuration file (--config, ABACUS_CONFIG_FILE or .abacus.yml)
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	ABACUS_CONFIG_FILE: Path to custom configuration file
//	ABACUS_CLIENT_BASE_URL: Service the client commands talk to
//	ABACUS_SERVER_PORT: Port of the reference service
//	And the rest of the ABACUS_<SECTION>_<OPTION> keys
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/conneroisu/abacus/internal/client"
	"github.com/conneroisu/abacus/internal/config"
	"github.com/conneroisu/abacus/internal/logging"
	"github.com/conneroisu/abacus/internal/mode"
	"github.com/conneroisu/abacus/internal/prefs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix prefixes every environment variable abacus reads.
const envPrefix = "ABACUS"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "abacus",
	Short: "A calculator client for a remote evaluation service",
	Long: `Abacus builds arithmetic expressions key by key, sends them to an
evaluation service and keeps a synchronized view of the service's history
and statistics.

Quick Start:
  abacus serve                  Start the reference evaluation service
  abacus eval "12+3*4"          Evaluate an expression
  abacus keys --live            Interactive key session with live history
  abacus history                Show recent evaluations
  abacus mode scientific        Switch and persist the evaluation mode`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext is Execute with a context that commands can observe.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .abacus.yml, can also use ABACUS_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("url", "", "base URL of the evaluation service")
}

// initConfig points viper at the configuration file and the environment.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. ABACUS_CONFIG_FILE environment variable
//  3. .abacus.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(envPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".abacus")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or unreadable file leaves the defaults and environment in
	// charge.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig binds the command's flags and loads the configuration.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	SetViperBindings(cmd, map[string]string{
		"log-level":  "log.level",
		"log-format": "log.format",
		"url":        "client.base_url",
	})
	SetViperBindings(cmd, bindings)
	return config.Load()
}

func newLogger(cfg *config.Config, w io.Writer) (logging.Logger, error) {
	logger, err := logging.FromConfig(cfg.Log.Level, cfg.Log.Format, w)
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// clientEnv is what every client command needs.
type clientEnv struct {
	cfg    *config.Config
	logger logging.Logger
	client *client.Client
}

func newClientEnv(cmd *cobra.Command) (*clientEnv, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	c, err := client.New(cfg.Client.BaseURL,
		client.WithTimeout(cfg.Client.Timeout),
		client.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &clientEnv{cfg: cfg, logger: logger, client: c}, nil
}

// modeSelector opens the persisted preferences and wraps them in a mode
// selector.
func (e *clientEnv) modeSelector() (*mode.Selector, *prefs.Store, error) {
	store, err := prefs.Open(e.cfg.Client.PrefsPath)
	if err != nil {
		return nil, nil, err
	}
	return mode.NewSelector(store, e.logger), store, nil
}
