// Package resolver derives the CDN entry endpoint of the widget from the
// location of the page that embeds it.
package resolver

import (
	"net/url"
	"strings"

	"github.com/aleister1102/widgetloader/internal/common"
	"github.com/aleister1102/widgetloader/internal/config"
	"github.com/aleister1102/widgetloader/internal/urlhandler"
)

// Location is the protocol and hostname of the host page. Protocol keeps
// its trailing colon ("https:").
type Location struct {
	Protocol string
	Hostname string
}

// LocationFromURL reads the location of a page URL. A URL without a scheme
// is read as http.
func LocationFromURL(rawURL string) (Location, error) {
	normalized, err := urlhandler.NormalizeURL(rawURL)
	if err != nil {
		return Location{}, common.NewValidationError("page_url", rawURL, err.Error())
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return Location{}, common.WrapError(err, "failed to parse page URL")
	}
	return Location{
		Protocol: strings.ToLower(u.Scheme) + ":",
		Hostname: strings.ToLower(u.Hostname()),
	}, nil
}

// Resolver maps a Location to the entry document URL.
type Resolver struct {
	localHosts    map[string]struct{}
	stagingDomain string
	entryPath     string
}

// New builds a Resolver from loader configuration.
func New(cfg config.LoaderConfig) *Resolver {
	hosts := make(map[string]struct{}, len(cfg.LocalHostnames))
	for _, h := range cfg.LocalHostnames {
		hosts[strings.ToLower(h)] = struct{}{}
	}
	return &Resolver{
		localHosts:    hosts,
		stagingDomain: cfg.StagingDomain,
		entryPath:     strings.TrimPrefix(cfg.EntryPath, "/"),
	}
}

// Default returns a Resolver with the built-in hostnames and staging domain.
func Default() *Resolver {
	return New(config.NewDefaultLoaderConfig())
}

// IsLocal reports whether hostname is a local-development host.
func (r *Resolver) IsLocal(hostname string) bool {
	_, ok := r.localHosts[strings.ToLower(hostname)]
	return ok
}

// Domain returns the protocol and domain the CDN host is derived from.
func (r *Resolver) Domain(loc Location) (protocol, domain string) {
	if r.IsLocal(loc.Hostname) {
		return config.DefaultSecureScheme, r.stagingDomain
	}
	return loc.Protocol, loc.Hostname
}

// Resolve returns {protocol}//cdn.{domain}/{entry path}.
func (r *Resolver) Resolve(loc Location) string {
	protocol, domain := r.Domain(loc)
	return protocol + "//cdn." + domain + "/" + r.entryPath
}
