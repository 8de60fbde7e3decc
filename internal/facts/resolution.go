package facts

import (
	"sort"

	"sysfacts/internal/execution"
)

// Resolution is one candidate strategy for computing a fact's value.
// Scripts attach code either as a Go function or as a shell command run
// through the execution bridge, and may confine the resolution to apply
// only when other facts hold expected values.
type Resolution struct {
	name     string
	weight   int
	weighted bool
	confines []confine
	code     func(env Environment) Value
}

type confine struct {
	fact   string
	values []Value
}

// Name returns the resolution's optional name.
func (r *Resolution) Name() string {
	return r.name
}

// Weight returns the explicit weight if one was set, otherwise the
// number of confines (a more constrained resolution outranks a less
// constrained one by default).
func (r *Resolution) Weight() int {
	if r.weighted {
		return r.weight
	}
	return len(r.confines)
}

// SetWeight assigns an explicit weight.
func (r *Resolution) SetWeight(weight int) {
	r.weight = weight
	r.weighted = true
}

// SetCode attaches a Go function producing the value.
func (r *Resolution) SetCode(fn func() interface{}) {
	r.code = func(Environment) Value {
		return fn()
	}
}

// SetCommand attaches a shell command; the resolution's value is the
// command's output, or absent when the command fails.
func (r *Resolution) SetCommand(command string) {
	r.code = func(Environment) Value {
		return execution.Exec(command)
	}
}

// SetValue attaches a fixed value.
func (r *Resolution) SetValue(value interface{}) {
	r.code = func(Environment) Value {
		return value
	}
}

// Confine restricts the resolution to apply only when the named fact
// resolves to one of the given values.
func (r *Resolution) Confine(fact string, values ...interface{}) {
	r.confines = append(r.confines, confine{fact: fact, values: values})
}

// suitable reports whether every confine passes against env.
func (r *Resolution) suitable(env Environment) bool {
	for _, c := range r.confines {
		actual := env.LookupValue(c.fact)
		if actual == nil {
			return false
		}
		matched := false
		for _, want := range c.values {
			if actual == want {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// resolve runs the resolution's code. A panic inside script-provided
// code is contained here and reported through env.
func (r *Resolution) resolve(env Environment) (value Value) {
	if r.code == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			env.LogResolutionFailure(r.name, rec)
			value = nil
		}
	}()
	return r.code(env)
}

// byWeight orders resolutions by descending weight, preserving
// registration order among equals.
func byWeight(resolutions []*Resolution) []*Resolution {
	ordered := make([]*Resolution, len(resolutions))
	copy(ordered, resolutions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Weight() > ordered[j].Weight()
	})
	return ordered
}
