package external

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// yamlDriver parses a whole YAML document into a mapping. Parse failures
// are soft: they warn and yield an empty result.
type yamlDriver struct {
	log *zap.Logger
}

func (d *yamlDriver) Match(path string) bool {
	return hasExtension(path, ".yaml")
}

func (d *yamlDriver) Parse(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		d.log.Warn("failed to read YAML facts file",
			zap.String("path", path), zap.Error(err))
		return map[string]interface{}{}, nil
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		d.log.Warn("failed to parse YAML facts file",
			zap.String("path", path), zap.Error(err))
		return map[string]interface{}{}, nil
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}

// textDriver parses key=value lines. The value is everything after the
// first '='; lines without one are ignored.
type textDriver struct {
	log *zap.Logger
}

func (d *textDriver) Match(path string) bool {
	return hasExtension(path, ".txt")
}

func (d *textDriver) Parse(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		d.log.Warn("failed to read text facts file",
			zap.String("path", path), zap.Error(err))
		return map[string]interface{}{}, nil
	}
	return parseKeyValueLines(string(data)), nil
}

// jsonDriver parses a whole JSON document into a mapping. Unlike the
// YAML driver, malformed input propagates to the caller. Do not unify
// the two policies without a product decision.
type jsonDriver struct{}

func (d *jsonDriver) Match(path string) bool {
	return hasExtension(path, ".json")
}

func (d *jsonDriver) Parse(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading JSON facts file %q: %w", path, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON facts file %q: %w", path, err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}

// execDriver runs an executable file and parses its stdout with the
// key=value rule. It matches on the executable bit rather than an
// extension, so it must be declared after the extension drivers.
type execDriver struct {
	log *zap.Logger
}

func (d *execDriver) Match(path string) bool {
	return isExecutableFile(path)
}

func (d *execDriver) Parse(path string) (map[string]interface{}, error) {
	cmd := exec.Command(path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		d.log.Warn("failed to execute facts file",
			zap.String("path", path), zap.Error(err))
		d.log.Debug("executable facts output before failure",
			zap.String("path", path), zap.ByteString("output", output))
		return map[string]interface{}{}, nil
	}
	return parseKeyValueLines(string(output)), nil
}

func parseKeyValueLines(content string) map[string]interface{} {
	result := make(map[string]interface{})
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}
		result[line[:idx]] = line[idx+1:]
	}
	return result
}
