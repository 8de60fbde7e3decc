package facts

import (
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"sysfacts/internal/external"
)

// Prober contributes built-in facts to a collection. The probing logic
// itself lives outside this runtime; probers are injected at
// construction.
type Prober interface {
	Probe(add func(name string, value Value))
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(add func(name string, value Value))

func (f ProberFunc) Probe(add func(name string, value Value)) {
	f(add)
}

// Collection is the base fact collection: built-in probe results plus
// external facts loaded from static files. Custom (script-defined) facts
// live in the engine's registry, not here.
type Collection struct {
	values  map[string]Value
	probers []Prober
	parser  *external.Parser
	log     *zap.Logger
}

// NewCollection creates an empty collection with the given probers.
func NewCollection(log *zap.Logger, probers ...Prober) *Collection {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collection{
		values:  make(map[string]Value),
		probers: probers,
		parser:  external.NewParser(log),
		log:     log,
	}
}

// Empty reports whether the collection has been populated.
func (c *Collection) Empty() bool {
	return len(c.values) == 0
}

// Size returns the number of facts in the collection.
func (c *Collection) Size() int {
	return len(c.values)
}

// Add inserts a fact value under a normalized name.
func (c *Collection) Add(name string, value Value) {
	c.values[NormalizeName(name)] = value
}

// Value returns the collection's value for a name, or nil.
func (c *Collection) Value(name string) Value {
	return c.values[NormalizeName(name)]
}

// AddDefaultFacts runs every registered prober once.
func (c *Collection) AddDefaultFacts() {
	for _, p := range c.probers {
		p.Probe(c.Add)
	}
}

// AddExternalFacts loads static fact files from the given directories.
// A single file's failure is logged and does not abort the batch.
func (c *Collection) AddExternalFacts(dirs []string) {
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			c.log.Debug("skipping external facts directory",
				zap.String("directory", dir), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			values, err := c.parser.Parse(path)
			if err != nil {
				c.log.Error("failed to load external facts",
					zap.String("path", path), zap.Error(err))
				continue
			}
			for name, value := range values {
				c.Add(name, value)
			}
		}
	}
}

// Each calls fn for every fact, in sorted name order.
func (c *Collection) Each(fn func(name string, value Value)) {
	names := make([]string, 0, len(c.values))
	for name := range c.values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fn(name, c.values[name])
	}
}

// Clear removes every fact from the collection.
func (c *Collection) Clear() {
	c.values = make(map[string]Value)
}
