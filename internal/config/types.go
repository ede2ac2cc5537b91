package config

// Project is the frozen v1 kconfgen.toml schema. Every field is optional;
// command-line flags take precedence over the file.
type Project struct {
	Version    int               `toml:"version"`
	Kconfig    string            `toml:"kconfig,omitempty"`
	Config     string            `toml:"config,omitempty"`
	Defaults   []string          `toml:"defaults,omitempty"`
	Prefix     string            `toml:"prefix,omitempty"`
	MinVersion string            `toml:"min_version,omitempty"`
	EnvFile    string            `toml:"env_file,omitempty"`
	Journal    string            `toml:"journal,omitempty"`
	Env        map[string]string `toml:"env,omitempty"`
	Outputs    []OutputConfig    `toml:"output,omitempty"`
	Logging    LoggingConfig     `toml:"logging"`
}

// OutputConfig requests one generated artifact.
type OutputConfig struct {
	Format string `toml:"format" json:"format"`
	Path   string `toml:"path" json:"path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}
