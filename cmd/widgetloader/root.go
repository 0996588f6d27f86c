package main

import (
	"fmt"

	"github.com/aleister1102/widgetloader/internal/common"
	"github.com/aleister1102/widgetloader/internal/config"
	"github.com/aleister1102/widgetloader/internal/httpclient"
	"github.com/aleister1102/widgetloader/internal/injector"
	"github.com/aleister1102/widgetloader/internal/loader"
	"github.com/aleister1102/widgetloader/internal/logger"
	"github.com/aleister1102/widgetloader/internal/metrics"
	"github.com/aleister1102/widgetloader/internal/resolver"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "widgetloader",
		Short: "Load the chat widget into host pages",
		Long: `widgetloader resolves the CDN entry document of the chat widget for a page,
and grafts the widget's stylesheets and scripts into that page. It can run once
against a saved page or as a reverse proxy in front of a site.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(newResolveCommand(opts))
	cmd.AddCommand(newCDNURLCommand())
	cmd.AddCommand(newInjectCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))

	return cmd
}

// app is the wiring shared by subcommands that need configuration.
type app struct {
	cfg    *config.GlobalConfig
	log    *logger.Logger
	logger zerolog.Logger
}

func loadApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := config.LoadGlobalConfig(opts.configPath, zerolog.Nop())
	if err != nil {
		return nil, common.WrapError(err, "could not load config")
	}
	if opts.logLevel != "" {
		cfg.LogConfig.LogLevel = opts.logLevel
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	log, err := logger.NewLoggerBuilder().
		WithConfig(cfg.LogConfig).
		WithConsoleOutput(cmd.ErrOrStderr()).
		Build()
	if err != nil {
		return nil, common.WrapError(err, "could not initialize logger")
	}

	return &app{
		cfg:    cfg,
		log:    log,
		logger: *log.GetZerolog(),
	}, nil
}

func (a *app) close() {
	_ = a.log.Close()
}

func (a *app) resolver() *resolver.Resolver {
	return resolver.New(a.cfg.LoaderConfig)
}

func (a *app) newLoader(m *metrics.Metrics) (*loader.Loader, error) {
	client, err := httpclient.NewHTTPClientBuilder(a.logger).
		WithConfig(a.cfg.HTTPClientConfig).
		Build()
	if err != nil {
		return nil, common.WrapError(err, "could not create HTTP client")
	}

	opts := []loader.Option{loader.WithDebug(a.cfg.LoaderConfig.Debug)}
	if m != nil {
		opts = append(opts, loader.WithMetrics(m))
	}
	inj := injector.New(client, a.cfg.LoaderConfig, a.logger)
	return loader.New(a.resolver(), inj, a.logger, opts...), nil
}
