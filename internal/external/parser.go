// Package external parses static fact files: YAML and JSON documents,
// line-oriented key=value text, and executables whose stdout is parsed as
// key=value lines. Each format has its own failure policy; see the
// individual drivers.
package external

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Driver parses one static fact file format.
type Driver interface {
	// Match reports whether this driver handles the given file.
	Match(path string) bool

	// Parse reads the file and returns a flat name -> value mapping.
	// Failure always yields an empty map, never a partial one.
	Parse(path string) (map[string]interface{}, error)
}

// Parser selects a format driver by file and runs it. Drivers are tried
// in declared order; extension-matched drivers come before the
// executable fallback.
type Parser struct {
	drivers []Driver
	log     *zap.Logger
}

// NewParser builds a parser with the full driver set.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{
		drivers: []Driver{
			&yamlDriver{log: log},
			&textDriver{log: log},
			&jsonDriver{},
			&execDriver{log: log},
		},
		log: log,
	}
}

// Parse resolves the driver for path and runs it. A file no driver
// matches is a configuration error and is never silently skipped.
func (p *Parser) Parse(path string) (map[string]interface{}, error) {
	for _, d := range p.drivers {
		if d.Match(path) {
			return d.Parse(path)
		}
	}
	return nil, fmt.Errorf("no parser for file %q", path)
}

// hasExtension matches a file extension case-insensitively.
func hasExtension(path, ext string) bool {
	return strings.EqualFold(extension(path), ext)
}

func extension(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}
