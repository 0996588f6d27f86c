// Package injector fetches the widget entry document and grafts its
// stylesheet links and scripts into a host page.
package injector

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/widgetloader/internal/common"
	"github.com/aleister1102/widgetloader/internal/config"
	"github.com/aleister1102/widgetloader/internal/httpclient"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Fetcher retrieves the entry document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*httpclient.FetchResult, error)
}

// Result summarizes one injection pass.
type Result struct {
	Endpoint string
	// Links moved to the end of the host head.
	Links int
	// Scripts created at the end of the host body.
	Scripts int
	// Skipped counts elements carrying the internal class.
	Skipped int
	// Ignored counts non-element nodes and elements that are neither link nor script.
	Ignored int
	// Defects holds per-element problems that did not stop the pass.
	Defects []error
}

// Injected is the total number of elements added to the host.
func (r *Result) Injected() int {
	return r.Links + r.Scripts
}

// Injector runs the fetch, parse and inject pipeline.
type Injector struct {
	fetcher       Fetcher
	markerClass   string
	internalClass string
	logger        zerolog.Logger
}

// New creates an Injector. cfg.Debug enables step logging regardless of the
// level of logger.
func New(fetcher Fetcher, cfg config.LoaderConfig, logger zerolog.Logger) *Injector {
	markerClass := cfg.MarkerClass
	if markerClass == "" {
		markerClass = config.DefaultMarkerClass
	}
	internalClass := cfg.InternalClass
	if internalClass == "" {
		internalClass = config.DefaultInternalClass
	}
	if cfg.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	}
	return &Injector{
		fetcher:       fetcher,
		markerClass:   markerClass,
		internalClass: internalClass,
		logger:        logger.With().Str("component", "Injector").Logger(),
	}
}

// MarkerClass is the class added to every injected element.
func (inj *Injector) MarkerClass() string {
	return inj.markerClass
}

// Inject fetches endpoint and appends its head links and scripts to host.
// The host is not touched unless the fetch and parse succeed.
func (inj *Injector) Inject(ctx context.Context, endpoint string, host Host) (*Result, error) {
	result := &Result{Endpoint: endpoint}

	candidates, err := inj.loadCandidates(ctx, endpoint)
	if err != nil {
		return result, err
	}

	defects := &common.ErrorCollector{}
	for i, n := range candidates {
		element := fmt.Sprintf("head element %d", i)
		if err := inj.place(n, host, result, defects, element); err != nil {
			inj.logger.Warn().Err(err).Int("index", i).Msg("Failed to inject element, continuing")
			defects.AddWithContext(err, element)
		}
	}
	result.Defects = defects.Errors()
	if defects.HasErrors() {
		inj.logger.Debug().Err(defects.Error()).Msg("Element defects during injection")
	}

	inj.logger.Debug().
		Str("endpoint", endpoint).
		Int("links", result.Links).
		Int("scripts", result.Scripts).
		Int("skipped", result.Skipped).
		Int("ignored", result.Ignored).
		Msg("Injection pass finished")
	return result, nil
}

// loadCandidates fetches and parses the entry document and snapshots the
// direct children of its head.
func (inj *Injector) loadCandidates(ctx context.Context, endpoint string) ([]*html.Node, error) {
	fetched, err := inj.fetcher.Fetch(ctx, endpoint)
	if errors.Is(err, common.ErrContentTooLarge) {
		return nil, fmt.Errorf("%w: entry document is incomplete: %w", common.ErrParse, err)
	}
	if err != nil {
		return nil, common.WrapError(err, "could not fetch widget build artifacts")
	}
	inj.logger.Debug().Str("endpoint", endpoint).Int("size", len(fetched.Content)).Msg("Fetched entry document")

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(fetched.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrParse, err)
	}
	if doc.Find("html").Length() == 0 {
		return nil, fmt.Errorf("%w: entry document has no root element", common.ErrParse)
	}
	head := doc.Find("head").First()
	if head.Length() == 0 || head.Get(0).FirstChild == nil {
		return nil, fmt.Errorf("%w: entry document has an empty head", common.ErrParse)
	}

	var candidates []*html.Node
	for c := head.Get(0).FirstChild; c != nil; c = c.NextSibling {
		candidates = append(candidates, c)
	}
	inj.logger.Debug().Int("candidates", len(candidates)).Msg("Parsed entry document head")
	return candidates, nil
}

// place injects a single candidate. A panic here is confined to the element.
// Problems that do not stop the element from being injected go to defects.
func (inj *Injector) place(n *html.Node, host Host, result *Result, defects *common.ErrorCollector, element string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("element injection panicked: %v", r)
		}
	}()

	kind := classify(n, inj.internalClass)
	switch kind {
	case kindNonElement:
		result.Ignored++
		return nil
	case kindInternal:
		inj.logger.Debug().Str("tag", n.Data).Msg("Skipping internal element")
		result.Skipped++
		return nil
	}

	if !addMarkerClass(n, inj.markerClass, inj.logger) {
		defects.AddWithContext(fmt.Errorf("%s element could not be marked", kind), element)
	}

	switch kind {
	case kindLink:
		detach(n)
		host.AppendToHead(n)
		result.Links++
		href, _ := getAttr(n, "href")
		inj.logger.Debug().Str("href", href).Msg("Injected link into host head")
	case kindScript:
		src, ok := getAttr(n, "src")
		if !ok || src == "" {
			return fmt.Errorf("script element has no src")
		}
		_, async := getAttr(n, "async")
		_, deferred := getAttr(n, "defer")
		host.AppendToBody(newScript(src, async, deferred, inj.markerClass))
		result.Scripts++
		inj.logger.Debug().Str("src", src).Bool("async", async).Bool("defer", deferred).Msg("Injected script into host body")
	default:
		result.Ignored++
	}
	return nil
}
