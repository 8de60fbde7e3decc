// Package facts holds the fact data model: named facts with candidate
// resolutions, and the base collection of built-in and external facts
// that custom facts layer on top of.
package facts

import (
	"fmt"
	"strings"
)

// Value is a resolved fact value. nil is the absent marker: a fact that
// could not be resolved has a nil value, never an error.
type Value = interface{}

// Environment supplies a fact with everything outside its own state:
// other facts' values for confinement checks, the base collection for
// fallback, and failure reporting.
type Environment interface {
	// LookupValue resolves another fact's value, loading it if needed.
	LookupValue(name string) Value

	// BaseValue returns the base collection's value for a name, or nil.
	BaseValue(name string) Value

	// LogResolutionFailure reports a panic raised by resolution code.
	LogResolutionFailure(resolution string, failure interface{})
}

// Fact is a named piece of system information plus its cache entry.
type Fact struct {
	name        string
	resolutions []*Resolution
	value       Value
	resolved    bool
}

// NormalizeName case-folds a fact name.
func NormalizeName(name string) string {
	return strings.ToLower(name)
}

// NewFact creates a fact with the given (already normalized) name.
func NewFact(name string) *Fact {
	return &Fact{name: name}
}

// Name returns the fact's normalized name.
func (f *Fact) Name() string {
	return f.name
}

// Resolutions returns the registered resolutions in registration order.
func (f *Fact) Resolutions() []*Resolution {
	return f.resolutions
}

// DefineResolution registers a resolution, or fetches the existing one
// when a non-empty name matches, and applies options. Recognized options
// are "weight" (int), "value" and "confine" (map of fact name to
// expected value or value slice); anything else is an argument error.
func (f *Fact) DefineResolution(name string, options map[string]interface{}) (*Resolution, error) {
	var resolution *Resolution
	if name != "" {
		for _, r := range f.resolutions {
			if r.name == name {
				resolution = r
				break
			}
		}
	}
	if resolution == nil {
		resolution = &Resolution{name: name}
		f.resolutions = append(f.resolutions, resolution)
	}

	for key, value := range options {
		switch key {
		case "weight":
			weight, ok := value.(int)
			if !ok {
				return nil, fmt.Errorf("expected int for weight option, got %T", value)
			}
			resolution.SetWeight(weight)
		case "value":
			resolution.SetValue(value)
		case "confine":
			confines, ok := value.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("expected map for confine option, got %T", value)
			}
			for factName, expected := range confines {
				if list, ok := expected.([]interface{}); ok {
					resolution.Confine(factName, list...)
				} else {
					resolution.Confine(factName, expected)
				}
			}
		default:
			return nil, fmt.Errorf("unexpected option %q", key)
		}
	}
	return resolution, nil
}

// Value resolves and caches the fact's value: the highest-weighted
// suitable resolution producing a non-absent value wins, with the base
// collection as the fallback. The outcome is cached, absent or not,
// until Flush.
func (f *Fact) Value(env Environment) Value {
	if f.resolved {
		return f.value
	}
	for _, r := range byWeight(f.resolutions) {
		if !r.suitable(env) {
			continue
		}
		if value := r.resolve(env); value != nil {
			f.value = value
			f.resolved = true
			return f.value
		}
	}
	f.value = env.BaseValue(f.name)
	f.resolved = true
	return f.value
}

// SetValue overrides the cached value. Setting nil marks the fact as
// resolved-absent.
func (f *Fact) SetValue(value Value) {
	f.value = value
	f.resolved = true
}

// Flush evicts the cached value so the next Value call recomputes it.
func (f *Fact) Flush() {
	f.value = nil
	f.resolved = false
}
