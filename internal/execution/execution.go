// Package execution bridges fact resolution to external commands. Commands
// run through a POSIX shell with stderr folded into the captured output,
// and failure is either surfaced as a typed error or swallowed into a
// caller-chosen default, depending on the call shape.
package execution

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExecutionError reports a command that could not be run or exited
// non-zero. It carries the original command text for the caller's message.
type ExecutionError struct {
	Command string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution of command %q failed", e.Command)
}

// Which resolves a binary name to an absolute path using PATH, checking
// the executable bit. It returns "" when the binary cannot be found.
func Which(binary string) string {
	if strings.ContainsRune(binary, os.PathSeparator) {
		if isExecutable(binary) {
			abs, err := filepath.Abs(binary)
			if err != nil {
				return ""
			}
			return abs
		}
		return ""
	}
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, binary)
		if isExecutable(candidate) {
			return candidate
		}
	}
	return ""
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

// Exec runs a shell command and returns its captured output, or nil when
// the command fails for any reason. This is the quiet call shape: it never
// reports an error.
func Exec(command string) interface{} {
	value, _ := run(command, nil, false)
	return value
}

// Execute runs a shell command. With no options the command must succeed
// or a *ExecutionError is returned. An options map is consulted for the
// single key "on_fail": the value "raise" selects the erroring behavior,
// any other value (including a missing key) becomes the result when the
// command fails.
func Execute(command string, options ...map[string]interface{}) (interface{}, error) {
	if len(options) == 0 || options[0] == nil {
		return run(command, nil, true)
	}
	onFail := options[0]["on_fail"]
	if s, ok := onFail.(string); ok && s == "raise" {
		return run(command, nil, true)
	}
	return run(command, onFail, false)
}

// run is the single execution path shared by Exec and Execute.
func run(command string, onFail interface{}, raise bool) (interface{}, error) {
	cmd := exec.Command("sh", "-c", expandCommand(command))
	output, err := cmd.CombinedOutput()
	if err == nil {
		return strings.TrimRight(string(output), "\n"), nil
	}
	if raise {
		return nil, &ExecutionError{Command: command}
	}
	return onFail, nil
}

// expandCommand replaces the first token of a command with its absolute
// path when it can be resolved, so commands do not depend on the shell's
// own PATH handling.
func expandCommand(command string) string {
	trimmed := strings.TrimLeft(command, " \t")
	if trimmed == "" {
		return command
	}
	end := strings.IndexAny(trimmed, " \t")
	binary, rest := trimmed, ""
	if end >= 0 {
		binary, rest = trimmed[:end], trimmed[end:]
	}
	expanded := Which(binary)
	if expanded == "" {
		return command
	}
	return expanded + rest
}
