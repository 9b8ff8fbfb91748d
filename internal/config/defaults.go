package config

const (
	SchemaVersion = 1

	// DefaultHostConfig is where the rendered host document lands,
	// relative to the project root.
	DefaultHostConfig = "host.config.yaml"
)

// DefaultManifest returns an empty v1 manifest.
func DefaultManifest() Manifest {
	return Manifest{
		Version:    SchemaVersion,
		HostConfig: DefaultHostConfig,
	}
}
