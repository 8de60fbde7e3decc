package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"sysfacts/internal/facts"
	"sysfacts/internal/searchpath"
)

// resolveFact finds a fact by name: registry cache first, then a
// single-file search across the resolved directories, then the base
// collection, then a bulk load of everything. A fact that still cannot
// be found is absent, never an error.
func (e *Engine) resolveFact(name string) *facts.Fact {
	name = facts.NormalizeName(name)

	if f := e.cachedFact(name); f != nil {
		return f
	}

	if !e.allLoaded() {
		filename := name + ScriptExtension
		e.log.Debug("searching for custom fact", zap.String("fact", name))

		for _, dir := range e.ResolvedSearchPaths() {
			e.log.Debug("searching directory for custom fact",
				zap.String("file", filename), zap.String("directory", dir))
			full := filepath.Join(dir, filename)
			info, err := os.Stat(full)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			e.loadFile(full)
		}

		if f := e.cachedFact(name); f != nil {
			return f
		}
	}

	// A base collection value gets wrapped as a bare fact without any
	// further scanning.
	if e.facts().Value(name) != nil {
		return e.createFact(name)
	}

	e.LoadAllFacts()
	if f := e.cachedFact(name); f != nil {
		return f
	}

	e.log.Debug("custom fact was not found", zap.String("fact", name))
	return nil
}

func (e *Engine) cachedFact(name string) *facts.Fact {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry[name]
}

func (e *Engine) allLoaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadedAll
}

// LoadAllFacts scans every resolved directory for fact scripts and
// loads each one. The pass is idempotent and completes even when
// individual files fail.
func (e *Engine) LoadAllFacts() {
	if e.allLoaded() {
		return
	}

	e.log.Debug("loading all custom facts")
	for _, dir := range e.ResolvedSearchPaths() {
		e.log.Debug("searching for custom facts", zap.String("directory", dir))
		entries, err := os.ReadDir(dir)
		if err != nil {
			e.log.Debug("failed to list custom facts directory",
				zap.String("directory", dir), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ScriptExtension) {
				continue
			}
			e.loadFile(filepath.Join(dir, entry.Name()))
		}
	}

	e.mu.Lock()
	e.loadedAll = true
	e.mu.Unlock()
}

// loadFile evaluates one fact script. Each canonical path executes at
// most once between resets; a script's failure is logged and contained
// so the surrounding batch continues.
func (e *Engine) loadFile(path string) {
	canonical := path
	if c, err := searchpath.Canonicalize(path); err == nil {
		canonical = c
	}

	e.mu.Lock()
	if _, loaded := e.loadedFiles[canonical]; loaded {
		e.mu.Unlock()
		return
	}
	e.loadedFiles[canonical] = struct{}{}
	e.mu.Unlock()

	e.log.Info("loading custom facts", zap.String("path", path))
	if err := e.evalFile(path); err != nil {
		e.log.Error("error while resolving custom facts",
			zap.String("path", path),
			zap.Error(err),
			zap.Stack("trace"))
	}
}

// evalFile runs a script in a fresh interpreter. Registration happens
// through the exported callback surface, either from the script's init
// functions or from an optional Facts() hook.
func (e *Engine) evalFile(path string) (err error) {
	i, err := e.newInterpreter()
	if err != nil {
		return err
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("script failure: %v", rec)
		}
	}()

	if _, err = i.EvalPath(path); err != nil {
		return err
	}

	if v, lookupErr := i.Eval("main.Facts"); lookupErr == nil {
		if hook, ok := v.Interface().(func()); ok {
			hook()
		}
	}
	return nil
}

// createFact inserts or fetches a registry entry. The base collection
// is populated before the first insertion so that collection-backed
// values are visible to the new fact's resolutions.
func (e *Engine) createFact(name string) *facts.Fact {
	name = facts.NormalizeName(name)

	if f := e.cachedFact(name); f != nil {
		return f
	}

	e.facts()

	e.mu.Lock()
	defer e.mu.Unlock()
	if f, ok := e.registry[name]; ok {
		return f
	}
	f := facts.NewFact(name)
	e.registry[name] = f
	return f
}

// Add creates or fetches a fact, registers a resolution from the
// options and runs the block against it. Malformed arguments panic;
// inside a script load that surfaces as an isolated script failure. A
// block failure marks the fact absent before re-signaling.
func (e *Engine) Add(name string, options map[string]interface{}, block func(*facts.Resolution)) *facts.Fact {
	if name == "" {
		panic("fact name must not be empty")
	}
	f := e.createFact(name)

	resolutionName := ""
	resolutionOptions := make(map[string]interface{}, len(options))
	for key, value := range options {
		if key == "name" {
			s, ok := value.(string)
			if !ok {
				panic(fmt.Sprintf("expected string for name option, got %T", value))
			}
			resolutionName = s
			continue
		}
		resolutionOptions[key] = value
	}

	resolution, err := f.DefineResolution(resolutionName, resolutionOptions)
	if err != nil {
		panic(err.Error())
	}

	if block != nil {
		defer func() {
			if rec := recover(); rec != nil {
				f.SetValue(nil)
				panic(rec)
			}
		}()
		block(resolution)
	}
	return f
}

// DefineFact creates or fetches a fact and runs the block against its
// handle, without registering a resolution.
func (e *Engine) DefineFact(name string, options map[string]interface{}, block func(*facts.Fact)) *facts.Fact {
	if name == "" {
		panic("fact name must not be empty")
	}
	f := e.createFact(name)
	if block != nil {
		block(f)
	}
	return f
}
