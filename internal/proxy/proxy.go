// Package proxy serves an upstream site and grafts the widget into every
// HTML page it returns.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aleister1102/widgetloader/internal/common"
	"github.com/aleister1102/widgetloader/internal/config"
	"github.com/aleister1102/widgetloader/internal/injector"
	"github.com/aleister1102/widgetloader/internal/loader"
	"github.com/aleister1102/widgetloader/internal/metrics"
	"github.com/aleister1102/widgetloader/internal/resolver"
	"github.com/aleister1102/widgetloader/internal/urlhandler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type contextKey string

const passContextKey contextKey = "widgetPass"

var renderBuffers = common.NewBufferPool(64*1024, 4*1024*1024)

// pass carries the page location into ModifyResponse and the outcome back out.
type pass struct {
	location resolver.Location
	injected bool
}

// Server is the injecting reverse proxy.
type Server struct {
	cfg          config.ProxyConfig
	upstream     *url.URL
	loader       *loader.Loader
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	router       chi.Router
	reverseProxy *httputil.ReverseProxy
	allowedHosts map[string]struct{}
}

// New builds the proxy. m may be nil.
func New(cfg config.ProxyConfig, l *loader.Loader, m *metrics.Metrics, logger zerolog.Logger) (*Server, error) {
	if err := urlhandler.ValidateURLFormat(cfg.Upstream); err != nil {
		return nil, common.NewValidationError("upstream", cfg.Upstream, err.Error())
	}
	upstream, err := url.Parse(strings.TrimSpace(cfg.Upstream))
	if err != nil {
		return nil, common.WrapError(err, "failed to parse upstream URL")
	}

	s := &Server{
		cfg:      cfg,
		upstream: upstream,
		loader:   l,
		metrics:  m,
		logger:   logger.With().Str("component", "Proxy").Logger(),
	}
	if len(cfg.AllowedHosts) > 0 {
		s.allowedHosts = make(map[string]struct{}, len(cfg.AllowedHosts))
		for _, host := range cfg.AllowedHosts {
			s.allowedHosts[strings.ToLower(strings.TrimSpace(host))] = struct{}{}
		}
	}

	s.reverseProxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(s.upstream)
			pr.SetXForwarded()
			// Bodies are rewritten, so ask for them uncompressed.
			pr.Out.Header.Set("Accept-Encoding", "identity")
		},
		ModifyResponse: s.modifyResponse,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Error().Err(err).
				Str("path", r.URL.Path).
				Str("host", r.Host).
				Msg("Upstream request failed")
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	if m != nil && cfg.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	r.Handle("/*", http.HandlerFunc(s.handleProxy))
	s.router = r

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p := &pass{location: LocationFromRequest(r, s.cfg.TrustForwardedProto)}
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

	s.reverseProxy.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), passContextKey, p)))

	if s.metrics != nil {
		s.metrics.RecordRequest(r.Method, strconv.Itoa(ww.Status()), p.injected, time.Since(start))
	}
}

func (s *Server) modifyResponse(resp *http.Response) error {
	p, ok := resp.Request.Context().Value(passContextKey).(*pass)
	if !ok || !injectable(resp) {
		return nil
	}
	if !s.hostAllowed(p.location.Hostname) {
		s.logger.Debug().Str("hostname", p.location.Hostname).Msg("Host not in allowed_hosts, passing through")
		return nil
	}

	original, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return common.WrapError(err, "failed to read upstream body")
	}
	restore := func(body []byte) {
		resp.Body = io.NopCloser(bytes.NewReader(body))
		resp.ContentLength = int64(len(body))
		resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
	}

	doc, err := injector.ParseDocument(bytes.NewReader(original))
	if err != nil {
		s.logger.Debug().Err(err).Str("path", resp.Request.URL.Path).Msg("Page cannot host the widget, passing through")
		restore(original)
		return nil
	}

	report := s.loader.Run(resp.Request.Context(), doc, p.location)
	if !report.Succeeded() || report.Injected() == 0 {
		restore(original)
		return nil
	}

	buf := renderBuffers.Get()
	defer renderBuffers.Put(buf)
	if err := doc.Render(buf); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to render page, passing original through")
		restore(original)
		return nil
	}
	resp.Header.Del("ETag")
	restore(bytes.Clone(buf.Bytes()))
	p.injected = true
	return nil
}

// hostAllowed reports whether pages served for hostname may receive the
// widget. The CDN host is derived from it, so it must not be arbitrary.
func (s *Server) hostAllowed(hostname string) bool {
	if s.allowedHosts == nil {
		return true
	}
	_, ok := s.allowedHosts[hostname]
	return ok
}

// injectable reports whether resp is a successful, uncompressed HTML page.
func injectable(resp *http.Response) bool {
	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.Request.Method == http.MethodHead {
		return false
	}
	if enc := resp.Header.Get("Content-Encoding"); enc != "" && !strings.EqualFold(enc, "identity") {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mediaType == "text/html"
}

// LocationFromRequest derives the page location the browser would report.
func LocationFromRequest(r *http.Request, trustForwarded bool) resolver.Location {
	proto := "http"
	if r.TLS != nil {
		proto = "https"
	}
	if trustForwarded {
		if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
			proto = strings.ToLower(strings.TrimSpace(strings.Split(fwd, ",")[0]))
		}
	}

	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return resolver.Location{
		Protocol: proto + ":",
		Hostname: strings.ToLower(strings.Trim(host, "[]")),
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("listen", s.cfg.ListenAddr).Str("upstream", s.upstream.String()).Msg("Proxy listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return common.WrapError(err, "proxy server failed")
	case <-ctx.Done():
	}

	s.logger.Info().Dur("timeout", s.cfg.ShutdownTimeout()).Msg("Shutting down proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return common.WrapError(err, "proxy shutdown failed")
	}
	return nil
}
