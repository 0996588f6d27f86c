package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aleister1102/widgetloader/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// Loader Defaults
	DefaultStagingDomain = "alpha.platform.smarter.sh"
	DefaultEntryPath     = "ui-chat/index.html"
	DefaultMarkerClass   = "smarter-chat"
	DefaultInternalClass = "internal"
	DefaultSecureScheme  = "https:"

	// HTTP Client Defaults
	DefaultFetchTimeoutSecs = 10
	DefaultFetchRetries     = 1
	DefaultRetryBaseDelayMs = 500
	DefaultRetryMaxDelayMs  = 2000
	DefaultMaxContentSizeKB = 1024
	DefaultUserAgent        = "widgetloader/1.0"
	DefaultMaxRedirects     = 10

	// Proxy Defaults
	DefaultProxyListenAddr      = ":8080"
	DefaultProxyUpstream        = "http://127.0.0.1:8000"
	DefaultProxyShutdownTimeout = 10

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	maxConfigFileSize = 1 * 1024 * 1024
)

// DefaultLocalHostnames is the recognised set of local-development hostnames.
var DefaultLocalHostnames = []string{"localhost", "localhost:8000", "127.0.0.1", "127.0.0.1:8000"}

// DefaultRetryStatusCodes are the upstream statuses worth a second attempt.
var DefaultRetryStatusCodes = []int{429, 502, 503, 504}

type GlobalConfig struct {
	HTTPClientConfig HTTPClientConfig `json:"http_client_config,omitempty" yaml:"http_client_config,omitempty"`
	LoaderConfig     LoaderConfig     `json:"loader_config,omitempty" yaml:"loader_config,omitempty"`
	LogConfig        LogConfig        `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	ProxyConfig      ProxyConfig      `json:"proxy_config,omitempty" yaml:"proxy_config,omitempty"`
}

func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		HTTPClientConfig: NewDefaultHTTPClientConfig(),
		LoaderConfig:     NewDefaultLoaderConfig(),
		LogConfig:        NewDefaultLogConfig(),
		ProxyConfig:      NewDefaultProxyConfig(),
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath, supports both JSON and YAML formats.
// YAML is preferred if the file extension is .yaml or .yml.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		if providedPath != "" {
			return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
		}
		logger.Debug().Msg("No config file found, using defaults")
		return cfg, nil
	}

	data, err := loadConfigFileContent(filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	logger.Debug().Str("path", filePath).Msg("Configuration loaded")
	return cfg, nil
}

// MarshalGlobalConfig encodes the configuration as YAML when ext is .yaml or
// .yml and as indented JSON otherwise.
func MarshalGlobalConfig(cfg *GlobalConfig, ext string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if isYAMLFile(ext) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return nil, common.WrapError(err, "failed to marshal configuration")
	}
	return data, nil
}

// SaveGlobalConfig writes the configuration to path, picking the format from the extension.
func SaveGlobalConfig(cfg *GlobalConfig, path string) error {
	data, err := MarshalGlobalConfig(cfg, filepath.Ext(path))
	if err != nil {
		return err
	}
	return common.WrapErrorf(os.WriteFile(path, data, 0644), "failed to write config %s", path)
}

// loadConfigFileContent reads the config file, refusing oversized files
func loadConfigFileContent(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigFileSize {
		return nil, common.NewValidationError("config_file", filePath, "config file exceeds 1MB")
	}
	return os.ReadFile(filePath)
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

// parseYAMLConfig parses YAML configuration
func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

// parseJSONConfig parses JSON configuration
func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}
