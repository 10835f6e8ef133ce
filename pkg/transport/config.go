package transport

// PlatformConfig holds the carrier settings of one configured platform.
type PlatformConfig struct {
	Protocol    string            `json:"protocol"`
	Credentials map[string]string `json:"credentials,omitempty"`
	Endpoints   map[string]string `json:"endpoints,omitempty"`
}

// Credential returns a credential value or an empty string.
func (c PlatformConfig) Credential(key string) string {
	return c.Credentials[key]
}

// Endpoint returns a configured endpoint and whether it is set.
func (c PlatformConfig) Endpoint(key string) (string, bool) {
	v, ok := c.Endpoints[key]
	return v, ok && v != ""
}

// ConfigProvider supplies carrier configuration to the Dispatcher.
type ConfigProvider interface {
	// GlobalEnvironment reports whether the system runs real transactions.
	GlobalEnvironment() bool

	// PlatformConfig returns the settings for platform, or false when the
	// platform is not configured.
	PlatformConfig(platform string) (PlatformConfig, bool)
}

// StaticConfig is a ConfigProvider backed by fixed values.
type StaticConfig struct {
	Real      bool
	Platforms map[string]PlatformConfig
}

// GlobalEnvironment implements ConfigProvider.
func (c StaticConfig) GlobalEnvironment() bool {
	return c.Real
}

// PlatformConfig implements ConfigProvider.
func (c StaticConfig) PlatformConfig(platform string) (PlatformConfig, bool) {
	cfg, ok := c.Platforms[platform]
	return cfg, ok
}

var _ ConfigProvider = StaticConfig{}
