package config

// LocalPaths holds the filesystem locations used instead of the remote
// repository when debug mode is active.
type LocalPaths struct {
	Modules     string `yaml:"modules" koanf:"modules"`
	HTML        string `yaml:"html" koanf:"html"`
	Stylesheets string `yaml:"stylesheets" koanf:"stylesheets"`
	Store       string `yaml:"store" koanf:"store"`
}

// ServerConfig holds the HTTP/WebSocket server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// Config is the top-level modkit configuration, corresponding to .modkit.yml.
type Config struct {
	RemoteBaseURL    string       `yaml:"remote_base_url" koanf:"remote_base_url"`
	DebugMode        bool         `yaml:"debug_mode" koanf:"debug_mode"`
	DisableCache     bool         `yaml:"disable_cache" koanf:"disable_cache"`
	DisableFallback  bool         `yaml:"disable_fallback" koanf:"disable_fallback"`
	LocalPaths       LocalPaths   `yaml:"local_paths" koanf:"local_paths"`
	DataDir          string       `yaml:"data_dir" koanf:"data_dir"`
	FetchTimeoutSecs int          `yaml:"fetch_timeout_secs" koanf:"fetch_timeout_secs"`
	BootTimeoutSecs  int          `yaml:"boot_timeout_secs" koanf:"boot_timeout_secs"`
	Server           ServerConfig `yaml:"server" koanf:"server"`
}
