package injector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aleister1102/widgetloader/internal/common"
	"github.com/aleister1102/widgetloader/internal/config"
	"github.com/aleister1102/widgetloader/internal/httpclient"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const hostPage = `<!DOCTYPE html><html><head><title>Host</title></head><body><p>hello</p></body></html>`

type stubFetcher struct {
	body  string
	err   error
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (*httpclient.FetchResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &httpclient.FetchResult{URL: url, Content: []byte(s.body), HTTPStatusCode: http.StatusOK}, nil
}

func newTestInjector(f Fetcher) *Injector {
	return New(f, config.NewDefaultLoaderConfig(), zerolog.Nop())
}

func parseHost(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseDocument(strings.NewReader(hostPage))
	require.NoError(t, err)
	return doc
}

func TestInject_LinksAndScripts(t *testing.T) {
	entry := `<html><head>
<link class="internal" href="x.css">
<link href="a.css">
<script src="a.js" async></script>
</head><body></body></html>`

	host := parseHost(t)
	result, err := newTestInjector(&stubFetcher{body: entry}).Inject(context.Background(), "https://cdn.example.com/ui-chat/index.html", host)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Links)
	assert.Equal(t, 1, result.Scripts)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Injected())
	assert.Empty(t, result.Defects)

	headLast := host.head.LastChild
	require.NotNil(t, headLast)
	assert.Equal(t, "link", headLast.Data)
	href, _ := getAttr(headLast, "href")
	assert.Equal(t, "a.css", href)
	assert.True(t, hasClass(headLast, "smarter-chat"))

	bodyLast := host.body.LastChild
	require.NotNil(t, bodyLast)
	assert.Equal(t, "script", bodyLast.Data)
	src, _ := getAttr(bodyLast, "src")
	assert.Equal(t, "a.js", src)
	_, async := getAttr(bodyLast, "async")
	assert.True(t, async)
	_, deferred := getAttr(bodyLast, "defer")
	assert.False(t, deferred)
	assert.True(t, hasClass(bodyLast, "smarter-chat"))

	assert.NotContains(t, host.String(), "x.css")
	assert.Equal(t, 2, host.Marked("smarter-chat").Length())
}

func TestInject_ScriptsAreFreshElements(t *testing.T) {
	entry := `<html><head><script src="main.js" type="module" crossorigin defer>console.log(1)</script></head></html>`

	host := parseHost(t)
	_, err := newTestInjector(&stubFetcher{body: entry}).Inject(context.Background(), "https://cdn.example.com/", host)
	require.NoError(t, err)

	script := host.body.LastChild
	require.NotNil(t, script)
	assert.Nil(t, script.FirstChild, "inline content must not be carried over")
	_, hasType := getAttr(script, "type")
	assert.False(t, hasType)
	_, hasCrossOrigin := getAttr(script, "crossorigin")
	assert.False(t, hasCrossOrigin)
	_, deferred := getAttr(script, "defer")
	assert.True(t, deferred)
	assert.Equal(t, []html.Attribute{
		{Key: "class", Val: "smarter-chat"},
		{Key: "src", Val: "main.js"},
		{Key: "defer"},
	}, script.Attr)
}

func TestInject_PreservesDocumentOrder(t *testing.T) {
	entry := `<html><head>
<link rel="stylesheet" href="1.css"><script src="1.js"></script>
<link rel="stylesheet" href="2.css"><script src="2.js"></script>
<link rel="icon" href="3.png">
</head></html>`

	host := parseHost(t)
	result, err := newTestInjector(&stubFetcher{body: entry}).Inject(context.Background(), "https://cdn.example.com/", host)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Links)
	assert.Equal(t, 2, result.Scripts)

	var hrefs, srcs []string
	for _, n := range host.Marked("smarter-chat").Nodes {
		if v, ok := getAttr(n, "href"); ok {
			hrefs = append(hrefs, v)
		}
		if v, ok := getAttr(n, "src"); ok {
			srcs = append(srcs, v)
		}
	}
	assert.Equal(t, []string{"1.css", "2.css", "3.png"}, hrefs)
	assert.Equal(t, []string{"1.js", "2.js"}, srcs)
}

func TestInject_IgnoresOtherElements(t *testing.T) {
	entry := `<html><head><meta charset="utf-8"><title>Widget</title><style>p{}</style><!-- c --></head></html>`

	host := parseHost(t)
	before := host.String()
	result, err := newTestInjector(&stubFetcher{body: entry}).Inject(context.Background(), "https://cdn.example.com/", host)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Injected())
	assert.Equal(t, 4, result.Ignored)
	assert.Equal(t, before, host.String())
}

func TestInject_MarkerAppendedToExistingClass(t *testing.T) {
	entry := `<html><head><link class="theme" href="a.css"></head></html>`

	host := parseHost(t)
	_, err := newTestInjector(&stubFetcher{body: entry}).Inject(context.Background(), "https://cdn.example.com/", host)
	require.NoError(t, err)

	class, _ := getAttr(host.head.LastChild, "class")
	assert.Equal(t, "theme smarter-chat", class)
}

func TestInject_ScriptWithoutSrcIsDefect(t *testing.T) {
	entry := `<html><head><script>inline()</script><script src="ok.js"></script></head></html>`

	host := parseHost(t)
	result, err := newTestInjector(&stubFetcher{body: entry}).Inject(context.Background(), "https://cdn.example.com/", host)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Scripts)
	require.Len(t, result.Defects, 1)
	assert.Equal(t, "head element 0: script element has no src", result.Defects[0].Error())
}

func TestInject_FetchFailureLeavesHostUntouched(t *testing.T) {
	host := parseHost(t)
	before := host.String()
	fetcher := &stubFetcher{err: common.NewHTTPErrorWithURL(http.StatusNotFound, "Not Found", "https://cdn.example.com/")}

	result, err := newTestInjector(fetcher).Inject(context.Background(), "https://cdn.example.com/", host)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrFetch))
	assert.Contains(t, err.Error(), "could not fetch widget build artifacts")
	assert.Equal(t, 0, result.Injected())
	assert.Equal(t, before, host.String())
}

func TestInject_EmptyHeadIsParseError(t *testing.T) {
	host := parseHost(t)
	before := host.String()

	_, err := newTestInjector(&stubFetcher{body: `<html><head></head><body><script src="a.js"></script></body></html>`}).
		Inject(context.Background(), "https://cdn.example.com/", host)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrParse))
	assert.Equal(t, before, host.String())
}

func TestInject_OverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ui-chat/index.html" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><link rel="stylesheet" href="/ui-chat/a.css"><script src="/ui-chat/a.js" defer></script></head></html>`))
	}))
	defer server.Close()

	client, err := httpclient.NewHTTPClientBuilder(zerolog.Nop()).WithRetry(httpclient.RetryHandlerConfig{}).Build()
	require.NoError(t, err)
	inj := newTestInjector(client)

	host := parseHost(t)
	result, err := inj.Inject(context.Background(), server.URL+"/ui-chat/index.html", host)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Injected())

	missing := parseHost(t)
	result, err = inj.Inject(context.Background(), server.URL+"/nope", missing)
	require.Error(t, err)
	assert.Equal(t, 0, result.Injected())
	assert.Equal(t, 0, missing.Marked("smarter-chat").Length())
}

func TestInject_OversizedEntryIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><link href="a.css"><script src="a.js"></script></head></html>`))
	}))
	defer server.Close()

	client, err := httpclient.NewHTTPClientBuilder(zerolog.Nop()).WithMaxContentSize(32).Build()
	require.NoError(t, err)

	host := parseHost(t)
	before := host.String()
	result, err := newTestInjector(client).Inject(context.Background(), server.URL, host)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrParse)
	assert.ErrorIs(t, err, common.ErrContentTooLarge)
	assert.Equal(t, 0, result.Injected())
	assert.Equal(t, before, host.String())
}

func TestNew_DebugConfigEnablesStepLogs(t *testing.T) {
	var buf strings.Builder
	cfg := config.NewDefaultLoaderConfig()
	cfg.Debug = true
	inj := New(&stubFetcher{body: `<html><head><link href="a.css"></head></html>`}, cfg, zerolog.New(&buf).Level(zerolog.WarnLevel))

	_, err := inj.Inject(context.Background(), "https://cdn.example.com/", parseHost(t))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Fetched entry document")
	assert.Contains(t, buf.String(), "Injected link into host head")
}
