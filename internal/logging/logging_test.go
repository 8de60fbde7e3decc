package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", ""} {
		log, err := New(level)
		require.NoError(t, err, "level %q", level)
		require.NotNil(t, log)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("shouting")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	// Must be safe to log through without any configuration.
	Nop().Info("discarded")
}
