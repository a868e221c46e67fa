// Package cli implements the ajax command, it sends calls to an endpoint through the ajax.Coordinator.
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keboola/go-ajax/internal/config"
	"github.com/keboola/go-ajax/pkg/ajax"
	"github.com/keboola/go-ajax/pkg/client"
)

type app struct {
	stdout io.Writer
	stderr io.Writer

	// Global flags
	cfgFile string
	baseURL string
	policy  string
	http2   bool

	cfg    *config.Config
	logger zerolog.Logger
}

// NewRootCommand creates the ajax command.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "ajax",
		Short: "Send calls to an API endpoint and interpret the response payload",
		Long: `ajax sends GET, POST, PUT and DELETE calls to an API endpoint.

The response payload is interpreted: a "redirect" is printed, "messages" are logged
grouped by type and "data" is printed as JSON, with the original key order.
The --burst flag sends multiple calls at once, the concurrency policy decides
which of them are completed.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initialize,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./ajax.yaml)")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "base URL of relative endpoints")
	root.PersistentFlags().StringVar(&a.policy, "policy", "", `concurrency policy "first", "last" or "all"`)
	root.PersistentFlags().BoolVar(&a.http2, "http2", false, "force HTTP2 protocol")

	for _, method := range []string{"get", "post", "put", "delete"} {
		root.AddCommand(a.newCallCommand(method))
	}

	return root
}

// initialize loads the configuration and logger
func (a *app) initialize(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags override the config file
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if cmd.Flags().Changed("policy") {
		if _, err := ajax.ParsePolicy(a.policy); err != nil {
			return err
		}
		cfg.Policy = a.policy
	}

	a.cfg = cfg
	a.logger = setupLogger(cfg.Logging, a.stderr)
	return nil
}

func (a *app) newClient() client.Client {
	c := client.New().WithHeaders(a.cfg.Headers).WithRetry(a.retryConfig())
	if a.http2 {
		c = c.WithTransport(client.HTTP2Transport())
	}
	if a.logger.GetLevel() <= zerolog.DebugLevel {
		c = c.WithTrace(client.LogTracer(a.logger))
	}
	return c
}

func (a *app) retryConfig() client.RetryConfig {
	if a.cfg.Retry.Count == 0 {
		v := client.NoRetry()
		v.TotalRequestTimeout = a.cfg.Timeout
		return v
	}
	v := client.DefaultRetry()
	v.Count = a.cfg.Retry.Count
	v.WaitTimeStart = a.cfg.Retry.WaitTimeStart
	v.WaitTimeMax = a.cfg.Retry.WaitTimeMax
	v.TotalRequestTimeout = a.cfg.Timeout
	return v
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color,
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
