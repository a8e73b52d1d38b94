package config

// DefaultRemoteBaseURL is the community module repository.
const DefaultRemoteBaseURL = "https://raw.githubusercontent.com/modkit-community/modules/main"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RemoteBaseURL:    DefaultRemoteBaseURL,
		DebugMode:        false,
		DisableCache:     false,
		DisableFallback:  false,
		DataDir:          ".modkit",
		FetchTimeoutSecs: 10,
		BootTimeoutSecs:  15,
		Server: ServerConfig{
			Port:            8046,
			AllowAllOrigins: false,
		},
	}
}
