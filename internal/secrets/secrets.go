// Package secrets manages ftk.secrets.yaml, the project-local store of
// credential environment variables collected during setup. The file is
// written 0600 and its values never appear in logs or in the rendered
// host document, which only references the variable names.
package secrets

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"

	"ftk/internal/config"
	"ftk/internal/fsutil"
)

type File struct {
	Secrets map[string]string `yaml:"secrets"`
}

func NewFile() File {
	return File{Secrets: map[string]string{}}
}

// Load reads the project secrets file; absence yields an empty file.
func Load(projectRoot string) (File, error) {
	blob, err := os.ReadFile(config.SecretsPath(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return NewFile(), nil
		}
		return File{}, err
	}
	var f File
	if err := yaml.Unmarshal(blob, &f); err != nil {
		return File{}, fmt.Errorf("SEC_PARSE: %w", err)
	}
	if f.Secrets == nil {
		f.Secrets = map[string]string{}
	}
	return f, nil
}

func Save(projectRoot string, f File) error {
	blob, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("SEC_ENCODE: %w", err)
	}
	return fsutil.AtomicWrite(config.SecretsPath(projectRoot), blob, 0o600)
}

// Set returns a copy of f with the variable set; empty values are
// ignored so a skipped prompt never clobbers an existing secret.
func Set(f File, envVar, value string) File {
	out := File{Secrets: make(map[string]string, len(f.Secrets)+1)}
	for k, v := range f.Secrets {
		out.Secrets[k] = v
	}
	if value != "" {
		out.Secrets[envVar] = value
	}
	return out
}

func Get(f File, envVar string) (string, bool) {
	v, ok := f.Secrets[envVar]
	return v, ok && v != ""
}

// Missing lists the required variables not yet present, sorted for
// stable prompting order. Values already exported in the process
// environment count as present.
func Missing(f File, required []string) []string {
	var out []string
	for _, envVar := range required {
		if _, ok := Get(f, envVar); ok {
			continue
		}
		if os.Getenv(envVar) != "" {
			continue
		}
		out = append(out, envVar)
	}
	sort.Strings(out)
	return out
}
