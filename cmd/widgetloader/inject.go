package main

import (
	"bytes"
	"io"
	"os"

	"github.com/aleister1102/widgetloader/internal/common"
	"github.com/aleister1102/widgetloader/internal/differ"
	"github.com/aleister1102/widgetloader/internal/injector"
	"github.com/aleister1102/widgetloader/internal/resolver"
	"github.com/spf13/cobra"
)

type injectOptions struct {
	pageURL string
	input   string
	output  string
	diff    bool
}

func newInjectCommand(root *rootOptions) *cobra.Command {
	opts := &injectOptions{}

	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Inject the widget into a saved HTML page",
		Long: `inject reads a host page, loads the widget entry document for --page-url and
writes the page with the widget's stylesheets and scripts appended. If the widget
cannot be loaded the page is written unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInject(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.pageURL, "page-url", "", "URL the page is served from")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Host page to read (default stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "File to write (default stdout)")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "Print a unified diff of the change instead of the page")
	_ = cmd.MarkFlagRequired("page-url")
	return cmd
}

func runInject(cmd *cobra.Command, root *rootOptions, opts *injectOptions) error {
	a, err := loadApp(cmd, root)
	if err != nil {
		return err
	}
	defer a.close()

	loc, err := resolver.LocationFromURL(opts.pageURL)
	if err != nil {
		return err
	}

	original, err := readInput(cmd, opts.input)
	if err != nil {
		return err
	}

	host, err := injector.ParseDocument(bytes.NewReader(original))
	if err != nil {
		a.logger.Warn().Err(err).Msg("Page cannot host the widget, writing it unchanged")
		return writeOutput(cmd, opts.output, original)
	}

	l, err := a.newLoader(nil)
	if err != nil {
		return err
	}
	report := l.Run(cmd.Context(), host, loc)

	if opts.diff {
		baseline, err := injector.ParseDocument(bytes.NewReader(original))
		if err != nil {
			return err
		}
		name := opts.input
		if name == "" {
			name = "stdin"
		}
		var buf bytes.Buffer
		stats, err := differ.New(differ.DefaultDiffConfig()).WriteUnified(&buf, baseline.String(), host.String(), name, name+" (injected)")
		if err != nil {
			return common.WrapError(err, "failed to write diff")
		}
		a.logger.Debug().Int("lines_added", stats.LinesAdded).Int("lines_deleted", stats.LinesDeleted).Msg("Computed page diff")
		return writeOutput(cmd, opts.output, buf.Bytes())
	}

	if !report.Succeeded() || report.Injected() == 0 {
		return writeOutput(cmd, opts.output, original)
	}

	var buf bytes.Buffer
	if err := host.Render(&buf); err != nil {
		return err
	}
	return writeOutput(cmd, opts.output, buf.Bytes())
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, common.WrapError(err, "failed to read page from stdin")
	}
	data, err := os.ReadFile(path)
	return data, common.WrapErrorf(err, "failed to read page %s", path)
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return common.WrapErrorf(os.WriteFile(path, data, 0644), "failed to write page %s", path)
}
