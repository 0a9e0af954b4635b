// Package replay drives a map surface headlessly from scripted pointer
// scenarios and collects the resulting features.
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is returned for scenario files that cannot be run.
var ErrInvalidScenario = errors.New("invalid scenario")

// Pixel is a position on the surface, [x, y] from the top-left corner.
type Pixel [2]float64

// Drag presses at From, moves to To and releases there.
type Drag struct {
	From Pixel `yaml:"from"`
	To   Pixel `yaml:"to"`
}

// Step is one action of a scenario. Exactly one action field must be set;
// Expect may accompany it or stand alone.
type Step struct {
	Command     string `yaml:"command,omitempty"` // draw, edit, delete, clear
	Deactivate  bool   `yaml:"deactivate,omitempty"`
	Click       *Pixel `yaml:"click,omitempty"`
	DoubleClick *Pixel `yaml:"dblclick,omitempty"`
	Down        *Pixel `yaml:"down,omitempty"`
	Move        *Pixel `yaml:"move,omitempty"`
	Up          *Pixel `yaml:"up,omitempty"`
	Drag        *Drag  `yaml:"drag,omitempty"`
	Escape      bool   `yaml:"escape,omitempty"`

	// Expect is the number of features the store must hold after the step.
	Expect *int `yaml:"expect,omitempty"`
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Command != "", s.Deactivate, s.Click != nil, s.DoubleClick != nil,
		s.Down != nil, s.Move != nil, s.Up != nil, s.Drag != nil, s.Escape,
	} {
		if set {
			n++
		}
	}
	return n
}

// Center is the initial map center.
type Center struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Size is the surface size in pixels.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Scenario is a scripted editing session.
type Scenario struct {
	Name   string  `yaml:"name"`
	Center Center  `yaml:"center"`
	Zoom   float64 `yaml:"zoom"`
	Size   Size    `yaml:"size"`
	Steps  []Step  `yaml:"steps"`

	// Path is the file the scenario was read from.
	Path string `yaml:"-"`
}

// Parse decodes a scenario, rejecting unknown fields.
func Parse(data []byte) (*Scenario, error) {
	sc := &Scenario{
		Zoom: 16,
		Size: Size{Width: 800, Height: 600},
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.Path = path
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

// Validate checks the view and that every step does exactly one thing.
func (sc *Scenario) Validate() error {
	var errs []error
	if sc.Size.Width <= 0 || sc.Size.Height <= 0 {
		errs = append(errs, fmt.Errorf("size must be positive, got %dx%d", sc.Size.Width, sc.Size.Height))
	}
	if sc.Center.Lat < -90 || sc.Center.Lat > 90 || sc.Center.Lon < -180 || sc.Center.Lon > 180 {
		errs = append(errs, fmt.Errorf("center %.6f,%.6f out of range", sc.Center.Lat, sc.Center.Lon))
	}
	for i, step := range sc.Steps {
		switch n := step.actions(); {
		case n > 1:
			errs = append(errs, fmt.Errorf("step %d: %d actions, want one", i+1, n))
		case n == 0 && step.Expect == nil:
			errs = append(errs, fmt.Errorf("step %d: empty", i+1))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return nil
}

// Match is a scenario file found by Expand.
type Match struct {
	Path string
	// Rel is Path relative to the static prefix of the pattern that matched
	// it: "edit/reshape.yaml" for "testdata/**/*.yaml".
	Rel string
}

// Expand expands doublestar patterns into scenario files, sorted by path and
// without duplicates. A pattern matching nothing is an error.
func Expand(patterns []string) ([]Match, error) {
	var out []Match
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("pattern %q: no matches", pattern)
		}
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		base = filepath.FromSlash(base)
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			rel, err := filepath.Rel(base, m)
			if err != nil {
				rel = filepath.Base(m)
			}
			out = append(out, Match{Path: m, Rel: rel})
		}
	}
	slices.SortFunc(out, func(a, b Match) int { return strings.Compare(a.Path, b.Path) })
	return out, nil
}

// Glob is Expand returning only the paths.
func Glob(patterns []string) ([]string, error) {
	matches, err := Expand(patterns)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m.Path
	}
	return paths, nil
}
