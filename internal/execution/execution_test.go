package execution

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRaisesWithoutOptions(t *testing.T) {
	_, err := Execute("false")
	require.Error(t, err)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "false", execErr.Command)
}

func TestExecuteOnFailDefault(t *testing.T) {
	value, err := Execute("false", map[string]interface{}{"on_fail": "N/A"})
	require.NoError(t, err)
	assert.Equal(t, "N/A", value)
}

func TestExecuteOnFailRaise(t *testing.T) {
	_, err := Execute("false", map[string]interface{}{"on_fail": "raise"})
	require.Error(t, err)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
}

func TestExecuteOptionsWithoutOnFailSwallow(t *testing.T) {
	// A present options map without the on_fail key means the failure
	// default is nil, not an error.
	value, err := Execute("false", map[string]interface{}{})
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestExecuteSuccess(t *testing.T) {
	value, err := Execute("echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
}

func TestExecuteMergesStderr(t *testing.T) {
	value, err := Execute("echo oops >&2")
	require.NoError(t, err)
	assert.Equal(t, "oops", value)
}

func TestExecQuiet(t *testing.T) {
	assert.Nil(t, Exec("false"))
	assert.Equal(t, "hello", Exec("echo hello"))
}

func TestWhich(t *testing.T) {
	path := Which("sh")
	require.NotEmpty(t, path)
	assert.True(t, filepath.IsAbs(path))

	assert.Empty(t, Which("definitely-not-a-real-binary-name"))
}
