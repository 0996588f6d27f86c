// Package loader is the outer boundary of the widget injection pipeline.
// A pass never propagates an error to its caller: failures end up in the
// returned Report and in the log.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/aleister1102/widgetloader/internal/common"
	"github.com/aleister1102/widgetloader/internal/injector"
	"github.com/aleister1102/widgetloader/internal/metrics"
	"github.com/aleister1102/widgetloader/internal/resolver"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Report describes the outcome of one pass.
type Report struct {
	PassID   string
	Endpoint string
	Started  time.Time
	Duration time.Duration
	Links    int
	Scripts  int
	Skipped  int
	Ignored  int
	Defects  []error
	Err      error
}

// Succeeded reports whether the pass reached the injection step.
func (r Report) Succeeded() bool {
	return r.Err == nil
}

// Injected is the number of elements added to the host.
func (r Report) Injected() int {
	return r.Links + r.Scripts
}

// Loader runs the resolve, fetch and inject pipeline against a host page.
type Loader struct {
	resolver *resolver.Resolver
	injector *injector.Injector
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// Option customizes a Loader.
type Option func(*Loader)

// WithMetrics records every pass on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) {
		l.metrics = m
	}
}

// WithDebug logs every pipeline step regardless of the configured level.
func WithDebug(debug bool) Option {
	return func(l *Loader) {
		if debug {
			l.logger = l.logger.Level(zerolog.DebugLevel)
		}
	}
}

// New creates a Loader.
func New(res *resolver.Resolver, inj *injector.Injector, logger zerolog.Logger, opts ...Option) *Loader {
	l := &Loader{
		resolver: res,
		injector: inj,
		logger:   logger.With().Str("component", "Loader").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run performs one pass for a page at loc.
func (l *Loader) Run(ctx context.Context, host injector.Host, loc resolver.Location) (report Report) {
	report = Report{
		PassID:  uuid.NewString(),
		Started: time.Now(),
	}
	logger := l.logger.With().Str("pass_id", report.PassID).Logger()

	defer func() {
		if r := recover(); r != nil {
			report.Err = fmt.Errorf("injection pass panicked: %v", r)
		}
		report.Duration = time.Since(report.Started)
		l.finish(logger, &report)
	}()

	report.Endpoint = l.resolver.Resolve(loc)
	logger.Debug().
		Str("protocol", loc.Protocol).
		Str("hostname", loc.Hostname).
		Str("endpoint", report.Endpoint).
		Msg("Resolved widget entry endpoint")

	result, err := l.injector.Inject(ctx, report.Endpoint, host)
	if result != nil {
		report.Links = result.Links
		report.Scripts = result.Scripts
		report.Skipped = result.Skipped
		report.Ignored = result.Ignored
		report.Defects = result.Defects
	}
	report.Err = err
	return report
}

func (l *Loader) finish(logger zerolog.Logger, report *Report) {
	if l.metrics != nil {
		result := metrics.ResultSuccess
		if report.Err != nil {
			result = metrics.ResultFailure
		}
		l.metrics.RecordPass(result, report.Links, report.Scripts, len(report.Defects), report.Duration)
	}

	if report.Err != nil {
		logger.Error().
			Err(report.Err).
			Str("cause", common.GetRootCause(report.Err).Error()).
			Str("endpoint", report.Endpoint).
			Msg("Widget failed to load: the entry endpoint must be reachable and serve an HTML document " +
				"whose head lists the widget stylesheets and scripts")
		return
	}

	logger.Info().
		Str("endpoint", report.Endpoint).
		Int("links", report.Links).
		Int("scripts", report.Scripts).
		Int("skipped", report.Skipped).
		Int("defects", len(report.Defects)).
		Dur("duration", report.Duration).
		Msg("Widget injected")
}

// Schedule runs a pass once ready closes. The returned channel yields
// exactly one Report. A context cancelled before ready closes yields a
// Report carrying the context error without touching host.
func (l *Loader) Schedule(ctx context.Context, ready <-chan struct{}, host injector.Host, loc resolver.Location) <-chan Report {
	out := make(chan Report, 1)
	done := OnReady(ctx, ready, func() {
		out <- l.Run(ctx, host, loc)
	})

	go func() {
		defer close(out)
		if err := <-done; err != nil {
			report := Report{PassID: uuid.NewString(), Started: time.Now(), Err: err}
			l.logger.Warn().Str("pass_id", report.PassID).Err(err).Msg("Host never became ready, widget not loaded")
			if l.metrics != nil {
				l.metrics.PassesTotal.WithLabelValues(metrics.ResultSkipped).Inc()
			}
			out <- report
		}
	}()
	return out
}
