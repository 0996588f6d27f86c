package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aleister1102/widgetloader/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostPage = "<!DOCTYPE html><html><head><title>Shop</title></head><body><h1>Shop</h1></body></html>"

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// newCDN serves entry documents to the HTTP client through its proxy setting,
// so any cdn.* hostname reaches it without DNS.
func newCDN(t *testing.T) (string, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var hosts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hosts = append(hosts, r.Host)
		mu.Unlock()
		if r.Host != "cdn.shop.test" || r.URL.Path != "/ui-chat/index.html" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><head><link class="internal" href="x.css"><link href="a.css"><script src="a.js" async></script></head></html>`)
	}))
	t.Cleanup(server.Close)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("http_client_config:\n  proxy: %s\n  retries: 0\nlog_config:\n  log_level: error\n", server.URL)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), hosts...)
	}
}

func TestResolveCommand(t *testing.T) {
	chdirT(t, t.TempDir())

	out, _, err := execute(t, "", "resolve", "--page-url", "https://shop.example.com/cart?x=1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.shop.example.com/ui-chat/index.html\n", out)

	out, _, err = execute(t, "", "resolve", "--page-url", "http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.alpha.platform.smarter.sh/ui-chat/index.html\n", out)
}

func TestResolveCommand_RequiresPageURL(t *testing.T) {
	_, _, err := execute(t, "", "resolve")
	assert.Error(t, err)
}

func TestResolveCommand_RelativeURL(t *testing.T) {
	chdirT(t, t.TempDir())
	_, _, err := execute(t, "", "resolve", "--page-url", "/relative")
	assert.Error(t, err)
}

func TestCDNURLCommand(t *testing.T) {
	t.Setenv("WIDGETLOADER_ROOT_DOMAIN", "example.com")
	t.Setenv("WIDGETLOADER_ENVIRONMENT", "alpha")

	out, _, err := execute(t, "", "cdn-url")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.alpha.platform.example.com/ui-chat/\n", out)

	out, _, err = execute(t, "", "cdn-url", "--entry")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.alpha.platform.example.com/ui-chat/index.html\n", out)
}

func TestInjectCommand_Stdin(t *testing.T) {
	configPath, hosts := newCDN(t)

	out, _, err := execute(t, hostPage, "inject", "--config", configPath, "--page-url", "http://shop.test/")
	require.NoError(t, err)

	assert.Equal(t, []string{"cdn.shop.test"}, hosts())
	assert.Contains(t, out, `<title>Shop</title><link href="a.css" class="smarter-chat"/></head>`)
	assert.Contains(t, out, `<h1>Shop</h1><script class="smarter-chat" src="a.js" async=""></script></body>`)
	assert.NotContains(t, out, "x.css")
}

func TestInjectCommand_Files(t *testing.T) {
	configPath, _ := newCDN(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "page.html")
	output := filepath.Join(dir, "out.html")
	require.NoError(t, os.WriteFile(input, []byte(hostPage), 0644))

	_, _, err := execute(t, "", "inject", "-c", configPath, "--page-url", "http://shop.test/", "-i", input, "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `class="smarter-chat"`)
}

func TestInjectCommand_FailureWritesPageUnchanged(t *testing.T) {
	configPath, _ := newCDN(t)

	out, _, err := execute(t, hostPage, "inject", "--config", configPath, "--page-url", "http://other.test/")
	require.NoError(t, err)
	assert.Equal(t, hostPage, out)
}

func TestInjectCommand_Diff(t *testing.T) {
	configPath, _ := newCDN(t)

	out, _, err := execute(t, hostPage, "inject", "--config", configPath, "--page-url", "http://shop.test/", "--diff")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "--- stdin\n+++ stdin (injected)\n"))
	assert.Contains(t, out, `+<!DOCTYPE html><html><head><title>Shop</title><link href="a.css" class="smarter-chat"/>`)
}

func TestInjectCommand_MissingInput(t *testing.T) {
	configPath, _ := newCDN(t)
	_, _, err := execute(t, "", "inject", "--config", configPath, "--page-url", "http://shop.test/", "--input", filepath.Join(t.TempDir(), "nope.html"))
	assert.Error(t, err)
}

func TestServeCommand_InvalidOverride(t *testing.T) {
	chdirT(t, t.TempDir())
	_, _, err := execute(t, "", "serve", "--upstream", "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Upstream")
}

func TestRootCommand_InvalidLogLevel(t *testing.T) {
	chdirT(t, t.TempDir())
	_, _, err := execute(t, "", "resolve", "--log-level", "loud", "--page-url", "https://example.com/")
	assert.Error(t, err)
}

func TestConfigCommand_PrintsEffectiveConfig(t *testing.T) {
	chdirT(t, t.TempDir())

	out, _, err := execute(t, "", "config", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, "log_config:")
	assert.Contains(t, out, "log_level: debug")
	assert.Contains(t, out, "alpha.platform.smarter.sh")
}

func TestConfigCommand_SavesToFile(t *testing.T) {
	configPath, _ := newCDN(t)
	output := filepath.Join(t.TempDir(), "effective.json")

	out, _, err := execute(t, "", "config", "--config", configPath, "-o", output)
	require.NoError(t, err)
	assert.Empty(t, out)

	saved, err := config.LoadGlobalConfig(output, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, saved.HTTPClientConfig.Retries)
	assert.Equal(t, "error", saved.LogConfig.LogLevel)
}

// chdirT changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdirT(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
