// Package screens loads the list screen definitions.
//
// Definitions are JSONC (JSON with comments and trailing commas). The
// defaults are embedded; a file named by SCREENS_FILE replaces them.
package screens

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/DukeRupert/treadline/internal/api"
	"github.com/DukeRupert/treadline/internal/listquery"
)

//go:embed screens.jsonc
var defaultScreens []byte

var (
	errNoScreens     = errors.New("no screens defined")
	errDuplicateName = errors.New("duplicate screen name")
	namePattern      = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

	// reserved names collide with fixed routes.
	reserved = map[string]bool{
		"login": true, "logout": true, "dashboard": true, "health": true,
		"metrics": true, "static": true, "live": true,
	}
)

// Column is one table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Screen describes one list screen.
type Screen struct {
	Name              string   `json:"name"`
	Title             string   `json:"title"`
	Resource          string   `json:"resource"`
	ItemsPerPage      int      `json:"itemsPerPage"`
	Pagination        string   `json:"pagination"`
	SearchPlaceholder string   `json:"searchPlaceholder"`
	Columns           []Column `json:"columns"`

	mode listquery.Mode
}

// Mode returns the parsed pagination mode.
func (s Screen) Mode() listquery.Mode {
	return s.mode
}

// Path returns the screen's route.
func (s Screen) Path() string {
	return "/" + s.Name
}

// Registry holds the configured screens in display order.
type Registry struct {
	screens []Screen
	byName  map[string]Screen
}

type file struct {
	Screens []Screen `json:"screens"`
}

// Default returns the embedded screen definitions.
func Default() (*Registry, error) {
	return Parse(defaultScreens)
}

// Load reads definitions from path, or the embedded defaults when path is
// empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read screens file: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("screens file %s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes and validates JSONC screen definitions.
func Parse(data []byte) (*Registry, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var f file
	if err := json.Unmarshal(standardized, &f); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(f.Screens) == 0 {
		return nil, errNoScreens
	}

	reg := &Registry{byName: make(map[string]Screen, len(f.Screens))}
	for i := range f.Screens {
		s := f.Screens[i]
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("screen %d (%q): %w", i+1, s.Name, err)
		}
		if _, dup := reg.byName[s.Name]; dup {
			return nil, fmt.Errorf("%w: %s", errDuplicateName, s.Name)
		}
		reg.byName[s.Name] = s
		reg.screens = append(reg.screens, s)
	}
	return reg, nil
}

func (s *Screen) validate() error {
	s.Name = strings.TrimSpace(s.Name)
	if !namePattern.MatchString(s.Name) {
		return fmt.Errorf("name must be lowercase letters, digits or dashes, got %q", s.Name)
	}
	if reserved[s.Name] {
		return fmt.Errorf("name %q is reserved", s.Name)
	}
	if s.Title == "" {
		s.Title = s.Name
	}
	if !api.KnownResource(s.Resource) {
		return fmt.Errorf("unknown resource %q", s.Resource)
	}
	if s.ItemsPerPage <= 0 || s.ItemsPerPage > 100 {
		return fmt.Errorf("itemsPerPage must be between 1 and 100, got %d", s.ItemsPerPage)
	}
	mode, err := listquery.ParseMode(s.Pagination)
	if err != nil {
		return err
	}
	s.mode = mode
	if len(s.Columns) == 0 {
		return errors.New("at least one column is required")
	}
	for _, c := range s.Columns {
		if c.Key == "" || c.Label == "" {
			return errors.New("columns need a key and a label")
		}
	}
	return nil
}

// All returns the screens in display order.
func (r *Registry) All() []Screen {
	return append([]Screen(nil), r.screens...)
}

// Get returns the screen named name.
func (r *Registry) Get(name string) (Screen, bool) {
	s, ok := r.byName[name]
	return s, ok
}
