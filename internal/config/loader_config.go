package config

// LoaderConfig defines how the entry endpoint is resolved and how injected
// elements are marked.
type LoaderConfig struct {
	// Hostnames served from the staging CDN instead of their own.
	LocalHostnames []string `json:"local_hostnames,omitempty" yaml:"local_hostnames,omitempty" validate:"omitempty,dive,required"`
	StagingDomain  string   `json:"staging_domain,omitempty" yaml:"staging_domain,omitempty" validate:"required,hostname_rfc1123"`
	// Path of the entry document relative to the cdn host, without a leading slash.
	EntryPath     string `json:"entry_path,omitempty" yaml:"entry_path,omitempty" validate:"required,entrypath"`
	MarkerClass   string `json:"marker_class,omitempty" yaml:"marker_class,omitempty" validate:"required,classname"`
	InternalClass string `json:"internal_class,omitempty" yaml:"internal_class,omitempty" validate:"required,classname"`
	// Debug logs every pipeline step.
	Debug bool `json:"debug" yaml:"debug"`
}

// NewDefaultLoaderConfig creates default loader configuration
func NewDefaultLoaderConfig() LoaderConfig {
	hosts := make([]string, len(DefaultLocalHostnames))
	copy(hosts, DefaultLocalHostnames)
	return LoaderConfig{
		LocalHostnames: hosts,
		StagingDomain:  DefaultStagingDomain,
		EntryPath:      DefaultEntryPath,
		MarkerClass:    DefaultMarkerClass,
		InternalClass:  DefaultInternalClass,
		Debug:          false,
	}
}
