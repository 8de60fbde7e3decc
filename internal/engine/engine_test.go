package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"sysfacts/internal/facts"
	"sysfacts/internal/searchpath"
)

func newTestEngine(t *testing.T, opts Options) (*Engine, *facts.Collection, *observer.ObservedLogs) {
	t.Helper()
	t.Setenv(searchpath.EnvVar, "")
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)
	collection := facts.NewCollection(log)
	e, err := New(log, collection, opts)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, collection, logs
}

func TestNewRequiresCollection(t *testing.T) {
	_, err := New(zap.NewNop(), nil, Options{})
	require.Error(t, err)
}

func TestValueFallsBackToCollection(t *testing.T) {
	e, collection, _ := newTestEngine(t, Options{})
	collection.Add("kernel", "linux")

	assert.Equal(t, "linux", e.Value("kernel"))

	// The collection value is wrapped as a bare fact handle.
	f := e.Fact("kernel")
	require.NotNil(t, f)
	assert.Empty(t, f.Resolutions())
}

func TestValueNormalizesNames(t *testing.T) {
	e, collection, _ := newTestEngine(t, Options{})
	collection.Add("kernel", "linux")

	assert.Equal(t, "linux", e.Value("KERNEL"))
}

func TestValueNotFoundIsAbsent(t *testing.T) {
	e, _, logs := newTestEngine(t, Options{})

	assert.Nil(t, e.Value("no_such_fact"))
	assert.Equal(t, 1, logs.FilterMessage("custom fact was not found").Len())
}

func TestAddRegistersResolution(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{})

	e.Add("role", map[string]interface{}{"weight": 10}, func(r *facts.Resolution) {
		r.SetCode(func() interface{} { return "webserver" })
	})

	assert.Equal(t, "webserver", e.Value("role"))
	f := e.Fact("role")
	require.NotNil(t, f)
	require.Len(t, f.Resolutions(), 1)
	assert.Equal(t, 10, f.Resolutions()[0].Weight())
}

func TestAddRejectsEmptyName(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{})
	assert.Panics(t, func() { e.Add("", nil, nil) })
}

func TestAddBlockFailureMarksFactAbsent(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{})

	require.Panics(t, func() {
		e.Add("fragile", nil, func(r *facts.Resolution) {
			r.SetCode(func() interface{} { return "never seen" })
			panic("block failure")
		})
	})

	// The failure is re-signaled, but the fact resolves absent.
	assert.Nil(t, e.Value("fragile"))
}

func TestDefineFactRegistersNoResolution(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{})

	var handle *facts.Fact
	f := e.DefineFact("bare", nil, func(f *facts.Fact) { handle = f })
	assert.Same(t, f, handle)
	assert.Empty(t, f.Resolutions())
}

func TestFlushRecomputesValues(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{})

	calls := 0
	e.Add("counter", nil, func(r *facts.Resolution) {
		r.SetCode(func() interface{} {
			calls++
			return calls
		})
	})

	assert.Equal(t, 1, e.Value("counter"))
	assert.Equal(t, 1, e.Value("counter"))

	e.Flush()
	assert.Equal(t, 2, e.Value("counter"))
}

func TestResetClearsSearchPathsAndRegistry(t *testing.T) {
	tmpDir := t.TempDir()
	e, _, _ := newTestEngine(t, Options{})

	e.AddSearchPath(tmpDir)
	require.Len(t, e.SearchPaths(), 1)

	e.Add("transient", nil, nil)
	e.AddExternalSearchPath(tmpDir)

	e.Reset()

	assert.Empty(t, e.SearchPaths())
	assert.Empty(t, e.ExternalSearchPaths())
	assert.Nil(t, e.cachedFact("transient"))
	assert.False(t, e.allLoaded())
}

func TestClearFlushesThenResets(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{})
	e.Add("transient", nil, func(r *facts.Resolution) {
		r.SetValue("v")
	})
	require.Equal(t, "v", e.Value("transient"))

	e.Clear()
	assert.Nil(t, e.cachedFact("transient"))
}

func TestAddSearchPathTracksUnresolvable(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{})

	// The path is recorded for introspection even though it cannot be
	// canonicalized into the resolved set.
	e.AddSearchPath("/definitely/does/not/exist")
	assert.Len(t, e.SearchPaths(), 1)
	assert.Empty(t, e.ResolvedSearchPaths())
}

func TestDebugOnce(t *testing.T) {
	e, _, logs := newTestEngine(t, Options{})

	e.DebugOnce("x")
	e.DebugOnce("x")
	e.DebugOnce("y")

	assert.Equal(t, 1, logs.FilterMessage("x").Len())
	assert.Equal(t, 1, logs.FilterMessage("y").Len())
}

func TestWarnOnceIndependentOfDebugOnce(t *testing.T) {
	e, _, logs := newTestEngine(t, Options{})

	e.DebugOnce("shared")
	e.WarnOnce("shared")
	e.WarnOnce("shared")

	// The two dedup sets are independent: one debug line, one warning.
	assert.Equal(t, 2, logs.FilterMessage("shared").Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestLogException(t *testing.T) {
	e, _, logs := newTestEngine(t, Options{})

	e.LogException(assert.AnError, "context message")
	entries := logs.FilterLevelExact(zap.ErrorLevel)
	require.Equal(t, 1, entries.Len())
	assert.Equal(t, "context message", entries.All()[0].Message)
}

func TestListAndToMap(t *testing.T) {
	e, collection, _ := newTestEngine(t, Options{})
	collection.Add("kernel", "linux")
	e.Add("role", nil, func(r *facts.Resolution) {
		r.SetValue("webserver")
	})

	names := e.List()
	assert.Equal(t, []string{"kernel", "role"}, names)

	m := e.ToMap()
	assert.Equal(t, "linux", m["kernel"])
	assert.Equal(t, "webserver", m["role"])
}

func TestEach(t *testing.T) {
	e, collection, _ := newTestEngine(t, Options{})
	collection.Add("kernel", "linux")

	seen := make(map[string]facts.Value)
	e.Each(func(name string, value facts.Value) {
		seen[name] = value
	})
	assert.Equal(t, "linux", seen["kernel"])
}

func TestExternalFactsLoadOnFirstUse(t *testing.T) {
	tmpDir := t.TempDir()
	writeScript(t, tmpDir, "static.yaml", "datacenter: eu-1\n")

	e, _, _ := newTestEngine(t, Options{})
	e.AddExternalSearchPath(tmpDir)

	assert.Equal(t, "eu-1", e.Value("datacenter"))
}

func TestVersion(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{})
	assert.Equal(t, Version, e.Version())
}

func TestCloseIsIdempotent(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{})
	e.Close()
	e.Close()
}

func TestHostInitializeShutdown(t *testing.T) {
	require.NoError(t, Initialize("error"))
	require.NotNil(t, Runtime())

	// Re-initializing while live is a no-op.
	require.NoError(t, Initialize("error"))

	Shutdown()
	assert.Nil(t, Runtime())

	// Out-of-order shutdown is safe.
	Shutdown()
}
