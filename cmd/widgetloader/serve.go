package main

import (
	"github.com/aleister1102/widgetloader/internal/config"
	"github.com/aleister1102/widgetloader/internal/metrics"
	"github.com/aleister1102/widgetloader/internal/proxy"
	"github.com/spf13/cobra"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var listen, upstream string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a reverse proxy that injects the widget into HTML pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}
			defer a.close()

			if listen != "" {
				a.cfg.ProxyConfig.ListenAddr = listen
			}
			if upstream != "" {
				a.cfg.ProxyConfig.Upstream = upstream
			}
			if err := config.ValidateConfig(a.cfg); err != nil {
				return err
			}

			m := metrics.New()
			l, err := a.newLoader(m)
			if err != nil {
				return err
			}
			server, err := proxy.New(a.cfg.ProxyConfig, l, m, a.logger)
			if err != nil {
				return err
			}
			return server.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVar(&upstream, "upstream", "", "Upstream site URL (overrides config)")
	return cmd
}
