package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/adversary/internal/ai"
)

// KeySource tells where an API key came from.
type KeySource string

const (
	SourceConfig KeySource = "config"
	SourceEnv    KeySource = "env"
	SourceUnset  KeySource = "unset"
)

// KeysFileName is the API key file inside the config directory.
const KeysFileName = "keys.json"

// KeysFile returns the path to the API key file.
func KeysFile() string {
	return filepath.Join(ConfigDir(), KeysFileName)
}

// Keys holds the API keys available to the provider router.
type Keys struct {
	// Path is the key file that was consulted.
	Path string
	// FileExists reports whether Path was present.
	FileExists bool

	values  map[string]string
	sources map[string]KeySource
}

// LoadKeys reads *_API_KEY entries from the JSON object at path and
// layers the environment on top: a non-empty environment variable always
// wins over the file. getenv is os.Getenv when nil.
//
// A missing file is not an error. An unreadable or malformed file is
// reported through the returned error, but the returned Keys is still
// usable and holds whatever the environment provides.
func LoadKeys(path string, getenv func(string) string) (*Keys, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	k := &Keys{
		Path:    path,
		values:  make(map[string]string),
		sources: make(map[string]KeySource),
	}

	var fileErr error
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		k.FileExists = true
		var fromFile map[string]string
		if err := json.Unmarshal(data, &fromFile); err != nil {
			fileErr = fmt.Errorf("could not load keys from %s: %w", path, err)
			break
		}
		for name, value := range fromFile {
			if strings.HasSuffix(name, "_API_KEY") && value != "" {
				k.values[name] = value
				k.sources[name] = SourceConfig
			}
		}
	case !os.IsNotExist(err):
		fileErr = fmt.Errorf("could not load keys from %s: %w", path, err)
	}

	for _, name := range knownKeyNames() {
		if v := getenv(name); v != "" {
			k.values[name] = v
			k.sources[name] = SourceEnv
		}
	}
	return k, fileErr
}

// Get returns the value of the key called name.
func (k *Keys) Get(name string) (string, bool) {
	v, ok := k.values[name]
	return v, ok
}

// Source reports where the key called name came from.
func (k *Keys) Source(name string) KeySource {
	if s, ok := k.sources[name]; ok {
		return s
	}
	return SourceUnset
}

// Values returns a copy of every resolved key.
func (k *Keys) Values() map[string]string {
	if k == nil {
		return map[string]string{}
	}
	return maps.Clone(k.values)
}

func knownKeyNames() []string {
	providers := ai.Providers()
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.KeyEnv)
	}
	return names
}
