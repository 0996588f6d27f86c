package main

import (
	"fmt"

	"github.com/aleister1102/widgetloader/internal/resolver"
	"github.com/spf13/cobra"
)

func newResolveCommand(opts *rootOptions) *cobra.Command {
	var pageURL string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the widget entry endpoint for a page URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			loc, err := resolver.LocationFromURL(pageURL)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), a.resolver().Resolve(loc))
			return err
		},
	}

	cmd.Flags().StringVar(&pageURL, "page-url", "", "URL of the page that embeds the widget")
	_ = cmd.MarkFlagRequired("page-url")
	return cmd
}

func newCDNURLCommand() *cobra.Command {
	var entry bool

	cmd := &cobra.Command{
		Use:   "cdn-url",
		Short: "Print the CDN base URL derived from WIDGETLOADER_* environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := resolver.LoadBuildEnvironment()
			if err != nil {
				return err
			}
			out := env.CDNBaseURL()
			if entry {
				out = env.EntryURL()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&entry, "entry", false, "Print the entry document URL instead of the base URL")
	return cmd
}
