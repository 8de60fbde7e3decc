// Package engine owns the custom fact runtime: the embedded script
// interpreter, the fact registry, search path state and the callback
// surface exported to fact-definition scripts.
package engine

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"sysfacts/internal/facts"
	"sysfacts/internal/searchpath"
)

// Version is the runtime version reported to scripts and the CLI.
const Version = "1.0.0"

// EntryPointFile marks the distribution's own root on the interpreter
// load path; such entries are never scanned for custom facts.
const EntryPointFile = "sysfacts.go"

// ScriptExtension is the file extension of custom fact scripts.
const ScriptExtension = ".go"

// supportFiles are the runtime's own support scripts, pre-marked as
// loaded so user scripts cannot re-trigger their execution.
var supportFiles = []string{
	"sysfacts.go",
	filepath.Join("facts", "resolution.go"),
	filepath.Join("execution", "execution.go"),
}

// Options configures engine construction.
type Options struct {
	// LoadPath is the interpreter's module search path; entries with a
	// "facts" subdirectory contribute to the custom fact search path.
	LoadPath []string

	// SearchPaths are explicit custom fact directories appended after
	// load-path and environment derived entries.
	SearchPaths []string
}

// Engine is the extension runtime. All mutable tables live here; script
// callbacks operate on the owning engine instance rather than on
// ambient globals.
type Engine struct {
	log        *zap.Logger
	collection *facts.Collection
	loadPath   []string
	exports    interp.Exports

	mu                    sync.Mutex
	registry              map[string]*facts.Fact
	loadedFiles           map[string]struct{}
	loadedAll             bool
	debugMessages         map[string]struct{}
	warningMessages       map[string]struct{}
	searchPaths           []string
	additionalSearchPaths []string
	externalSearchPaths   []string
	closed                bool
}

// New constructs the runtime. It verifies up front that the embedded
// interpreter can be built and loaded with stdlib symbols; failure is a
// fatal configuration error.
func New(log *zap.Logger, collection *facts.Collection, opts Options) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if collection == nil {
		return nil, fmt.Errorf("fact collection is required")
	}

	e := &Engine{
		log:             log,
		collection:      collection,
		loadPath:        opts.LoadPath,
		registry:        make(map[string]*facts.Fact),
		loadedFiles:     make(map[string]struct{}),
		debugMessages:   make(map[string]struct{}),
		warningMessages: make(map[string]struct{}),
	}
	e.exports = e.buildExports()

	if _, err := e.newInterpreter(); err != nil {
		return nil, fmt.Errorf("scripting runtime is not available: %w", err)
	}

	e.initializeSearchPaths(opts.SearchPaths)
	e.seedLoadedFiles()
	return e, nil
}

// newInterpreter builds a fresh interpreter carrying stdlib symbols and
// the sysfacts callback surface. Each script file is evaluated in its
// own interpreter so one script's declarations cannot collide with
// another's. The export map is built once at construction and never
// mutated, which keeps the execution namespace frozen.
func (e *Engine) newInterpreter() (*interp.Interpreter, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}
	if err := i.Use(e.exports); err != nil {
		return nil, fmt.Errorf("loading sysfacts symbols: %w", err)
	}
	return i, nil
}

// initializeSearchPaths recomputes the resolved search path from the
// load path, the environment and the given explicit paths.
func (e *Engine) initializeSearchPaths(explicit []string) {
	resolved := searchpath.Resolve(searchpath.Options{
		LoadPath:   e.loadPath,
		EntryPoint: EntryPointFile,
		Explicit:   explicit,
		Log:        e.log,
	})
	e.mu.Lock()
	e.searchPaths = resolved
	e.additionalSearchPaths = nil
	e.mu.Unlock()
}

// seedLoadedFiles marks the runtime's support files under the first
// load-path entry as already loaded.
func (e *Engine) seedLoadedFiles() {
	if len(e.loadPath) == 0 {
		return
	}
	root, err := searchpath.Canonicalize(e.loadPath[0])
	if err != nil {
		root = e.loadPath[0]
	}
	e.mu.Lock()
	for _, name := range supportFiles {
		e.loadedFiles[filepath.Join(root, name)] = struct{}{}
	}
	e.mu.Unlock()
}

// Version returns the runtime version string.
func (e *Engine) Version() string {
	return Version
}

// facts returns the base collection, populating it on first use with
// default and external facts.
func (e *Engine) facts() *facts.Collection {
	if e.collection.Empty() {
		e.collection.AddDefaultFacts()
		e.collection.AddExternalFacts(e.ExternalSearchPaths())
	}
	return e.collection
}

// Value resolves a fact and returns its value, or nil when the fact
// cannot be found.
func (e *Engine) Value(name string) facts.Value {
	f := e.resolveFact(name)
	if f == nil {
		return nil
	}
	return f.Value(e)
}

// Fact resolves a fact and returns its handle, or nil.
func (e *Engine) Fact(name string) *facts.Fact {
	return e.resolveFact(name)
}

// LookupValue implements facts.Environment for confinement checks.
func (e *Engine) LookupValue(name string) facts.Value {
	return e.Value(name)
}

// BaseValue implements facts.Environment: base collection fallback.
func (e *Engine) BaseValue(name string) facts.Value {
	return e.facts().Value(name)
}

// LogResolutionFailure implements facts.Environment.
func (e *Engine) LogResolutionFailure(resolution string, failure interface{}) {
	e.log.Error("fact resolution failed",
		zap.String("resolution", resolution),
		zap.Any("failure", failure),
		zap.Stack("trace"))
}

// Flush evicts every cached fact value.
func (e *Engine) Flush() {
	for _, f := range e.registryFacts() {
		f.Flush()
	}
}

// resolveAll populates the collection, loads every custom fact file and
// forces each registered fact's value.
func (e *Engine) resolveAll() {
	e.facts()
	e.LoadAllFacts()
	for _, f := range e.registryFacts() {
		f.Value(e)
	}
}

// List resolves all facts and returns their names in sorted order.
func (e *Engine) List() []string {
	e.resolveAll()
	names := e.allNames()
	sort.Strings(names)
	return names
}

// ToMap resolves all facts and returns a name to value mapping.
func (e *Engine) ToMap() map[string]facts.Value {
	e.resolveAll()
	result := make(map[string]facts.Value)
	for _, name := range e.allNames() {
		result[name] = e.Value(name)
	}
	return result
}

// Each resolves all facts and invokes fn per entry in sorted name order.
func (e *Engine) Each(fn func(name string, value facts.Value)) {
	for _, name := range e.List() {
		fn(name, e.Value(name))
	}
}

// allNames returns the union of collection and registry fact names.
func (e *Engine) allNames() []string {
	seen := make(map[string]struct{})
	var names []string
	e.collection.Each(func(name string, _ facts.Value) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	})
	for _, f := range e.registryFacts() {
		if _, ok := seen[f.Name()]; !ok {
			seen[f.Name()] = struct{}{}
			names = append(names, f.Name())
		}
	}
	return names
}

// registryFacts snapshots the registry under the lock.
func (e *Engine) registryFacts() []*facts.Fact {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]*facts.Fact, 0, len(e.registry))
	for _, f := range e.registry {
		result = append(result, f)
	}
	return result
}

// Reset clears the registry, dedup log sets, loaded-file markers and
// path lists, then recomputes the default search paths. Explicit paths
// given at construction are not restored.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.registry = make(map[string]*facts.Fact)
	e.loadedFiles = make(map[string]struct{})
	e.loadedAll = false
	e.debugMessages = make(map[string]struct{})
	e.warningMessages = make(map[string]struct{})
	e.externalSearchPaths = nil
	e.mu.Unlock()

	e.initializeSearchPaths(nil)
	e.seedLoadedFiles()
}

// Clear flushes every cached fact value, then resets.
func (e *Engine) Clear() {
	e.Flush()
	e.Reset()
}

// Close tears the runtime down: the registry is cleared without touching
// the base collection. Safe to call more than once; skipping it leaks
// nothing beyond process lifetime, but hosts should call it from their
// own shutdown path.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.registry = make(map[string]*facts.Fact)
}

// AddSearchPath appends custom fact search directories. Every path is
// recorded for introspection; only canonicalizable ones join the
// resolved search path.
func (e *Engine) AddSearchPath(paths ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range paths {
		e.additionalSearchPaths = append(e.additionalSearchPaths, p)
		dir, err := searchpath.Canonicalize(p)
		if err != nil {
			e.log.Debug("path will not be searched for custom facts",
				zap.String("path", p), zap.Error(err))
			continue
		}
		e.searchPaths = append(e.searchPaths, dir)
	}
}

// SearchPaths lists the explicitly-added custom fact search paths.
func (e *Engine) SearchPaths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.additionalSearchPaths...)
}

// ResolvedSearchPaths lists the full resolved search path in scan order.
func (e *Engine) ResolvedSearchPaths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.searchPaths...)
}

// AddExternalSearchPath appends external (static) fact directories.
func (e *Engine) AddExternalSearchPath(paths ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.externalSearchPaths = append(e.externalSearchPaths, paths...)
}

// ExternalSearchPaths lists the external fact directories.
func (e *Engine) ExternalSearchPaths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.externalSearchPaths...)
}

// Debug logs a message unconditionally at debug level.
func (e *Engine) Debug(message string) {
	e.log.Debug(message)
}

// DebugOnce logs a message at most once per distinct string.
func (e *Engine) DebugOnce(message string) {
	e.mu.Lock()
	_, seen := e.debugMessages[message]
	if !seen {
		e.debugMessages[message] = struct{}{}
	}
	e.mu.Unlock()
	if !seen {
		e.log.Debug(message)
	}
}

// Warn logs a message unconditionally at warn level.
func (e *Engine) Warn(message string) {
	e.log.Warn(message)
}

// WarnOnce logs a message at most once per distinct string.
func (e *Engine) WarnOnce(message string) {
	e.mu.Lock()
	_, seen := e.warningMessages[message]
	if !seen {
		e.warningMessages[message] = struct{}{}
	}
	e.mu.Unlock()
	if !seen {
		e.log.Warn(message)
	}
}

// LogException logs an error with its description and a trace. An
// optional message overrides the error's own description.
func (e *Engine) LogException(err error, message ...string) {
	description := ""
	if err != nil {
		description = err.Error()
	}
	if len(message) > 0 && message[0] != "" {
		description = message[0]
	}
	e.log.Error(description, zap.Error(err), zap.Stack("trace"))
}
