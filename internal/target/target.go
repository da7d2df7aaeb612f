// Package target holds the immutable list of monitored endpoints for a run.
package target

import (
	"fmt"

	"github.com/sznuper/portalwatch/internal/config"
)

// Target is one monitored (environment, URL, expected marker) triple.
type Target struct {
	Name           string
	Env            string
	URL            string
	ExpectedMarker string
	AlertTitle     string
}

// Registry is an ordered, read-only set of targets.
type Registry struct {
	targets []Target
}

// NewRegistry builds a registry, rejecting an empty list and duplicate names.
func NewRegistry(targets []Target) (*Registry, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets configured")
	}
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if t.Name == "" {
			return nil, fmt.Errorf("target with url %q has no name", t.URL)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate target %q", t.Name)
		}
		seen[t.Name] = true
	}
	return &Registry{targets: append([]Target(nil), targets...)}, nil
}

// FromConfig converts config targets into a registry.
func FromConfig(cfg []config.Target) (*Registry, error) {
	targets := make([]Target, len(cfg))
	for i, c := range cfg {
		targets[i] = Target{
			Name:           c.Name,
			Env:            c.Env,
			URL:            c.URL,
			ExpectedMarker: c.ExpectedMarker,
			AlertTitle:     c.AlertTitle,
		}
	}
	return NewRegistry(targets)
}

// All returns the targets in configured order. The slice is a copy.
func (r *Registry) All() []Target {
	return append([]Target(nil), r.targets...)
}

// Find returns the target with the given name, or nil if not found.
func (r *Registry) Find(name string) *Target {
	for i := range r.targets {
		if r.targets[i].Name == name {
			t := r.targets[i]
			return &t
		}
	}
	return nil
}

func (r *Registry) Len() int { return len(r.targets) }
