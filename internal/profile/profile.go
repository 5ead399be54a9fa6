// Package profile stores named bundles of critique settings as YAML files
// so a recurring review setup can be applied with a single flag.
package profile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/adversary/internal/errors"
)

// Flag names a profile field overrides when the flag was left unset.
const (
	FlagModels         = "models"
	FlagFocus          = "focus"
	FlagPersona        = "persona"
	FlagContext        = "context"
	FlagPreserveIntent = "preserve-intent"
)

const fileExt = ".yaml"

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// Profile is a saved set of critique settings.
type Profile struct {
	Name           string   `yaml:"-"`
	Models         []string `yaml:"models,omitempty"`
	Focus          string   `yaml:"focus,omitempty"`
	Persona        string   `yaml:"persona,omitempty"`
	Context        []string `yaml:"context,omitempty"`
	PreserveIntent bool     `yaml:"preserve_intent,omitempty"`
}

// Settings are the critique settings a profile can supply.
type Settings struct {
	Models         []string
	Focus          string
	Persona        string
	Context        []string
	PreserveIntent bool
}

// Apply returns s with every field the profile sets copied in, except
// fields whose flag the user set explicitly. changed reports whether a
// flag (one of the Flag constants) was given on the command line.
func (p *Profile) Apply(s Settings, changed func(flag string) bool) Settings {
	if len(p.Models) > 0 && !changed(FlagModels) {
		s.Models = slices.Clone(p.Models)
	}
	if p.Focus != "" && !changed(FlagFocus) {
		s.Focus = p.Focus
	}
	if p.Persona != "" && !changed(FlagPersona) {
		s.Persona = p.Persona
	}
	if len(p.Context) > 0 && !changed(FlagContext) {
		s.Context = slices.Clone(p.Context)
	}
	if p.PreserveIntent && !changed(FlagPreserveIntent) {
		s.PreserveIntent = true
	}
	return s
}

// Store reads and writes profiles in a directory, one YAML file each.
type Store struct {
	dir string
}

// NewStore returns a Store over dir. The directory is created on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the profile directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file a profile called name is stored in.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Save writes p under p.Name, replacing any previous profile of that name.
func (s *Store) Save(p *Profile) (string, error) {
	if err := validateName(p.Name); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create profile directory: %w", err)
	}
	path := s.Path(p.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write profile: %w", err)
	}
	return path, nil
}

// Load reads the profile called name. A missing profile fails with
// errors.ErrProfileNotFound and a malformed one with errors.ErrInvalidConfig.
func (s *Store) Load(name string) (*Profile, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError(
				fmt.Sprintf("profile %q not found at %s", name, path), errors.ErrProfileNotFound,
			).WithField("profile")
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p, err := decode(data)
	if err != nil {
		return nil, errors.NewConfigError(
			fmt.Sprintf("invalid profile %q: %v", name, err), errors.ErrInvalidConfig,
		).WithField("profile")
	}
	p.Name = name
	return p, nil
}

// Entry is one row of a profile listing. Err is set when the file exists
// but could not be parsed.
type Entry struct {
	Profile *Profile
	Name    string
	Err     error
}

// List returns every profile in the directory sorted by name. A missing
// directory yields an empty listing.
func (s *Store) List() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		name, ok := strings.CutSuffix(f.Name(), fileExt)
		if f.IsDir() || !ok || validateName(name) != nil {
			continue
		}
		p, err := s.Load(name)
		entries = append(entries, Entry{Name: name, Profile: p, Err: err})
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}

func decode(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &p, nil
}

func validateName(name string) error {
	if !validName.MatchString(name) {
		return errors.NewConfigError(fmt.Sprintf("invalid profile name %q", name), errors.ErrInvalidInput).
			WithField("profile")
	}
	return nil
}
