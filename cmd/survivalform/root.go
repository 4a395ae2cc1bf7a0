package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-survivalform/internal/config"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	verbose    bool

	backendURL     string
	output         string
	floorDelay     time.Duration
	delayThreshold time.Duration
	timeout        time.Duration

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "survivalform",
		Short: "Titanic Survival Prediction",
		Long: `survivalform collects a passenger record, validates it locally and
submits it to a prediction service that answers with three model predictions.

Run "survivalform predict" for the interactive form, or pass --record to
submit a JSON or YAML record file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&a.backendURL, "backend-url", "", "prediction service base URL")
	flags.StringVarP(&a.output, "output", "o", "", "report format: text, json or html")
	flags.DurationVar(&a.floorDelay, "floor-delay", 0, "minimum wait after a fast prediction")
	flags.DurationVar(&a.delayThreshold, "delay-threshold", 0, "latency below which the floor delay applies")
	flags.DurationVar(&a.timeout, "timeout", 0, "bound on each prediction request (0 disables)")

	root.AddCommand(
		newPredictCmd(a),
		newValidateCmd(a),
		newContractCmd(),
		newVersionCmd(),
	)
	return root
}

// setup resolves the configuration, applies explicit flags over it and
// builds the logger. Logs go to the command's error stream.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend-url") {
		cfg.BaseURL = a.backendURL
	}
	if flags.Changed("output") {
		cfg.Output = a.output
	}
	if flags.Changed("floor-delay") {
		cfg.FloorDelay = a.floorDelay
	}
	if flags.Changed("delay-threshold") {
		cfg.DelayThreshold = a.delayThreshold
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = a.timeout
	}
	if a.verbose {
		cfg.LogLevel = zapcore.DebugLevel.String()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoder),
		zapcore.AddSync(cmd.ErrOrStderr()),
		zap.NewAtomicLevelAt(cfg.Level()),
	)
	a.logger = zap.New(core).With(zap.String("command", cmd.Name()))
	a.logger.Debug("configuration resolved",
		zap.String("backend_url", cfg.BaseURL),
		zap.String("output", cfg.Output),
		zap.Duration("floor_delay", cfg.FloorDelay),
		zap.Duration("delay_threshold", cfg.DelayThreshold),
		zap.Duration("request_timeout", cfg.RequestTimeout),
	)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "survivalform %s\n", version)
			return err
		},
	}
}
