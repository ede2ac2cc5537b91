package config

const (
	SchemaVersion = 1

	// ProjectFileName is looked up from the working directory upwards when
	// no --project-file is given.
	ProjectFileName = "kconfgen.toml"
)

// DefaultProject returns the document written by `kconfgen init`.
func DefaultProject() Project {
	return Project{
		Version: SchemaVersion,
		Kconfig: "Kconfig",
		Config:  "sdkconfig",
		Outputs: []OutputConfig{
			{Format: "header", Path: "sdkconfig.h"},
			{Format: "build-include", Path: "sdkconfig.cmake"},
			{Format: "settings", Path: "sdkconfig"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
