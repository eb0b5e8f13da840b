// Package cli implements the georecords commands.
package cli

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"georecords/internal/adapters/codec"
	"georecords/internal/adapters/observability"
	"georecords/internal/app"
	"georecords/internal/schema"
	"georecords/internal/shared"
)

// ErrInvalid is returned when at least one document failed validation. The
// diagnostics have already been printed.
var ErrInvalid = errors.New("validation failed")

var (
	configFile string
	logLevel   string
	policyFlag string

	cfg      shared.Config
	registry *prometheus.Registry
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:               "georecords",
	Short:             "Validate province, district and ward records",
	Long:              "Structural validation for nested administrative-division records (province → district → ward) read from JSON or YAML.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional config file (yaml, json or toml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (default: $LOG_LEVEL or info)")
	RootCmd.PersistentFlags().StringVar(&policyFlag, "policy", "", "Unknown field policy: strict or mask (default: $GEORECORDS_POLICY or strict)")
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := shared.Load(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if policyFlag != "" {
		c.Policy = policyFlag
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	// logs go to stderr; stdout carries the records
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel, cmd.ErrOrStderr())
	registry = observability.InitRegistry()
	return nil
}

func newValidationService() (*app.ValidationService, error) {
	p, err := schema.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	v := schema.New(schema.Options{Policy: p, MaxFailures: cfg.MaxFailures})
	return app.NewValidationService(v, codec.New(), observability.Recorder{}), nil
}

// flushMetrics writes the metrics textfile when METRICS_FILE is configured.
func flushMetrics() {
	if err := observability.WriteTextfile(registry, cfg.MetricsFile); err != nil {
		log.Error().Err(err).Msg("metrics export failed")
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
