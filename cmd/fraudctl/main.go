package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fraud-console/internal/config"
	"fraud-console/internal/gateway"
	"fraud-console/internal/observability"
	"fraud-console/internal/services"
)

var version = "dev"

// cli holds the state shared by every subcommand of one root command.
type cli struct {
	v       *viper.Viper
	cfgFile string
	logger  *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "fraudctl",
		Short: "Operate the fraud detection service from a terminal",
		Long: `fraudctl drives the same actions as the fraud console pages: health and
metrics, transaction scoring, A/B experiments and data ingestion.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: c.initConfig,
	}

	// A malformed FRAUD_API_* value surfaces again from upstream().
	defaults, _ := config.DefaultUpstream()
	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default: $HOME/.config/fraudctl/config.yaml)")
	flags.String("base-url", defaults.BaseURL, "fraud service base URL")
	flags.String("api-key", defaults.APIKey, "value sent in the x-api-key header")
	flags.String("provider", defaults.ProviderID, "provider id used for uploads and webhooks")
	flags.Duration("timeout", defaults.Timeout, "per-request timeout")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	_ = c.v.BindPFlag("upstream.base_url", flags.Lookup("base-url"))
	_ = c.v.BindPFlag("upstream.api_key", flags.Lookup("api-key"))
	_ = c.v.BindPFlag("upstream.provider_id", flags.Lookup("provider"))
	_ = c.v.BindPFlag("upstream.timeout", flags.Lookup("timeout"))
	_ = c.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = c.v.BindPFlag("logging.format", flags.Lookup("log-format"))

	root.AddCommand(c.healthCmd())
	root.AddCommand(c.statsCmd())
	root.AddCommand(c.dashboardCmd())
	root.AddCommand(c.scoreCmd())
	root.AddCommand(c.batchCmd())
	root.AddCommand(c.processCmd())
	root.AddCommand(c.abtestCmd())
	root.AddCommand(c.ingestCmd())

	return root
}

func (c *cli) initConfig(cmd *cobra.Command, _ []string) error {
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			c.v.AddConfigPath(home + "/.config/fraudctl")
		}
		c.v.AddConfigPath(".")
		c.v.SetConfigName("config")
		c.v.SetConfigType("yaml")
	}

	c.v.SetEnvPrefix("FRAUDCTL")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	c.logger = observability.NewLoggerTo(cmd.ErrOrStderr(), config.LoggerConfig{
		Level:  c.v.GetString("logging.level"),
		Format: c.v.GetString("logging.format"),
	})
	slog.SetDefault(c.logger)
	c.logger.Debug("configuration loaded", "config_file", c.v.ConfigFileUsed())
	return nil
}

func (c *cli) upstream() (config.UpstreamConfig, error) {
	u, err := config.DefaultUpstream()
	if err != nil {
		return config.UpstreamConfig{}, err
	}
	u.BaseURL = c.v.GetString("upstream.base_url")
	u.APIKey = c.v.GetString("upstream.api_key")
	u.ProviderID = c.v.GetString("upstream.provider_id")
	timeout, err := config.Duration(c.v, "upstream.timeout")
	if err != nil {
		return config.UpstreamConfig{}, err
	}
	if timeout > 0 {
		u.Timeout = timeout
	}
	if err := u.Validate(); err != nil {
		return config.UpstreamConfig{}, err
	}
	return u, nil
}

// session builds a one-shot set of controllers bound to the configured
// service.
func (c *cli) session() (*services.Session, error) {
	u, err := c.upstream()
	if err != nil {
		return nil, err
	}
	client := gateway.New(u, c.logger)
	opts := services.Options{Logger: c.logger, Now: time.Now}
	return services.NewSession(uuid.NewString(), client, u.ProviderID, opts), nil
}
