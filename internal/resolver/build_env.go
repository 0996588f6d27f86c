package resolver

import (
	"strings"

	"github.com/aleister1102/widgetloader/internal/common"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of the build-time environment variables.
const EnvPrefix = "WIDGETLOADER"

// BuildEnvironment is the static, build-time description of where the
// widget's assets are published.
type BuildEnvironment struct {
	RootDomain        string `envconfig:"ROOT_DOMAIN" required:"true"`
	PlatformSubdomain string `envconfig:"PLATFORM_SUBDOMAIN" default:"platform"`
	// alpha, beta, prod...
	Environment string `envconfig:"ENVIRONMENT" default:"prod"`
	BasePath    string `envconfig:"BASE_PATH" default:"ui-chat/"`
}

// LoadBuildEnvironment reads WIDGETLOADER_* variables.
func LoadBuildEnvironment() (BuildEnvironment, error) {
	var env BuildEnvironment
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return BuildEnvironment{}, common.WrapError(err, "failed to load build environment")
	}
	if strings.TrimSpace(env.RootDomain) == "" {
		return BuildEnvironment{}, common.NewValidationError(EnvPrefix+"_ROOT_DOMAIN", env.RootDomain, "root domain must not be empty")
	}
	return env, nil
}

// SubdomainPrefix is empty in production and "<label>." elsewhere.
func (e BuildEnvironment) SubdomainPrefix() string {
	switch strings.ToLower(strings.TrimSpace(e.Environment)) {
	case "", "prod", "production":
		return ""
	default:
		return strings.ToLower(strings.TrimSpace(e.Environment)) + "."
	}
}

// Domain is the platform domain for this environment, e.g. alpha.platform.example.com.
func (e BuildEnvironment) Domain() string {
	domain := e.SubdomainPrefix()
	if e.PlatformSubdomain != "" {
		domain += e.PlatformSubdomain + "."
	}
	return domain + e.RootDomain
}

// CDNBaseURL is the URL the widget build uses as its asset base.
func (e BuildEnvironment) CDNBaseURL() string {
	base := strings.Trim(e.BasePath, "/")
	if base == "" {
		return "https://cdn." + e.Domain() + "/"
	}
	return "https://cdn." + e.Domain() + "/" + base + "/"
}

// EntryURL is the entry document below CDNBaseURL.
func (e BuildEnvironment) EntryURL() string {
	return e.CDNBaseURL() + "index.html"
}
