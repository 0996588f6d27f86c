package main

import (
	"github.com/aleister1102/widgetloader/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCommand(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or save the effective configuration",
		Long: `config loads the configuration the other commands would use, applies the
--log-level override and validates it. The result is printed as YAML, or saved
to --output as YAML or JSON depending on the file extension.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			if output != "" {
				if err := config.SaveGlobalConfig(a.cfg, output); err != nil {
					return err
				}
				a.logger.Info().Str("path", output).Msg("Configuration saved")
				return nil
			}

			data, err := config.MarshalGlobalConfig(a.cfg, ".yaml")
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to save the configuration to (.yaml, .yml or .json)")
	return cmd
}
