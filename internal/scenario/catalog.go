// Scenario catalog: track id -> incident templates
package scenario

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"lnops-sim/internal/incident"
)

// Catalog maps track identifiers to ordered incident templates.
type Catalog struct {
	tracks    map[string][]incident.Template
	defaultID string
}

// File is the on-disk YAML layout of a custom catalog.
type File struct {
	Default string                         `yaml:"default,omitempty"`
	Tracks  map[string][]incident.Template `yaml:"tracks"`
}

// New wraps a track table. defaultID names the fallback track.
func New(tracks map[string][]incident.Template, defaultID string) *Catalog {
	if tracks == nil {
		tracks = make(map[string][]incident.Template)
	}
	return &Catalog{tracks: tracks, defaultID: defaultID}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(BuiltIn(), DefaultTrack)
}

// Templates returns a copy of the templates for track, falling back to the
// default track when the id is unknown.
func (c *Catalog) Templates(track string) []incident.Template {
	list, ok := c.tracks[track]
	if !ok {
		list = c.tracks[c.defaultID]
	}
	out := make([]incident.Template, len(list))
	copy(out, list)
	return out
}

// Resolve returns the track id a lookup for track will actually use.
func (c *Catalog) Resolve(track string) string {
	if _, ok := c.tracks[track]; ok {
		return track
	}
	return c.defaultID
}

// Has reports whether track is defined.
func (c *Catalog) Has(track string) bool {
	_, ok := c.tracks[track]
	return ok
}

// Tracks lists known track ids in sorted order.
func (c *Catalog) Tracks() []string {
	ids := make([]string, 0, len(c.tracks))
	for id := range c.tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Merge overlays other onto c. Tracks in other replace tracks with the same id.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	for id, list := range other.tracks {
		c.tracks[id] = list
	}
	if other.defaultID != "" {
		c.defaultID = other.defaultID
	}
}

// Validate checks every template for a known severity and a positive decay rate.
func (c *Catalog) Validate() error {
	if _, ok := c.tracks[c.defaultID]; !ok {
		return fmt.Errorf("default track %q not defined", c.defaultID)
	}
	for _, id := range c.Tracks() {
		for i, t := range c.tracks[id] {
			if _, err := incident.ParseSeverity(string(t.Severity)); err != nil {
				return fmt.Errorf("track %s template %d: %w", id, i, err)
			}
			if t.DecayRate <= 0 {
				return fmt.Errorf("track %s template %d: decay_rate must be positive, got %v", id, i, t.DecayRate)
			}
			if t.Type == "" {
				return fmt.Errorf("track %s template %d: missing type", id, i)
			}
		}
	}
	return nil
}

// Load reads a YAML catalog definition from disk.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for id, list := range f.Tracks {
		for i := range list {
			sev, err := incident.ParseSeverity(string(list[i].Severity))
			if err != nil {
				return nil, fmt.Errorf("track %s template %d: %w", id, i, err)
			}
			list[i].Severity = sev
		}
	}
	return New(f.Tracks, f.Default), nil
}

// LoadWithBuiltIn returns the built-in catalog overlaid with the file at path.
// An empty path yields the built-ins unchanged.
func LoadWithBuiltIn(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	custom, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.Merge(custom)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return c, nil
}
