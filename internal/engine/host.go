package engine

import (
	"sync"

	"go.uber.org/zap"

	"sysfacts/internal/facts"
	"sysfacts/internal/logging"
)

// The host boundary for embedders that want a process-wide runtime
// rather than owning an Engine directly. The original design hung
// teardown off a garbage-collector sentinel; here ownership is
// explicit: Initialize constructs the singleton and Shutdown releases
// it. Both are safe no-ops when called out of order.

var (
	hostMu     sync.Mutex
	hostEngine *Engine
	hostLogger *zap.Logger
)

// Initialize configures logging at the given level and constructs the
// process-wide runtime. Calling it again while initialized is a no-op.
func Initialize(logLevel string) error {
	hostMu.Lock()
	defer hostMu.Unlock()

	if hostEngine != nil {
		return nil
	}

	log, err := logging.New(logLevel)
	if err != nil {
		return err
	}

	collection := facts.NewCollection(log, facts.DefaultProbers()...)
	e, err := New(log, collection, Options{})
	if err != nil {
		return err
	}

	hostLogger = log
	hostEngine = e
	return nil
}

// Runtime returns the process-wide engine, or nil before Initialize.
func Runtime() *Engine {
	hostMu.Lock()
	defer hostMu.Unlock()
	return hostEngine
}

// Shutdown releases the process-wide runtime. A no-op when nothing is
// initialized.
func Shutdown() {
	hostMu.Lock()
	defer hostMu.Unlock()

	if hostEngine == nil {
		return
	}
	hostEngine.Close()
	hostEngine = nil

	if hostLogger != nil {
		_ = hostLogger.Sync()
		hostLogger = nil
	}
}
