package engine

import (
	"reflect"

	"github.com/traefik/yaegi/interp"

	"sysfacts/internal/execution"
	"sysfacts/internal/facts"
)

// buildExports assembles the interpreter packages visible to fact
// scripts: "sysfacts" (callback surface bound to this engine),
// "sysfacts/facts" (handle types) and "sysfacts/execution" (the command
// execution bridge). The map is registered into every script
// interpreter and never mutated afterwards.
func (e *Engine) buildExports() interp.Exports {
	return interp.Exports{
		"sysfacts/sysfacts": {
			"VERSION":               reflect.ValueOf(Version),
			"Version":               reflect.ValueOf(e.Version),
			"Add":                   reflect.ValueOf(e.Add),
			"DefineFact":            reflect.ValueOf(e.DefineFact),
			"Value":                 reflect.ValueOf(e.Value),
			"Fact":                  reflect.ValueOf(e.Fact),
			"Debug":                 reflect.ValueOf(e.Debug),
			"DebugOnce":             reflect.ValueOf(e.DebugOnce),
			"Warn":                  reflect.ValueOf(e.Warn),
			"WarnOnce":              reflect.ValueOf(e.WarnOnce),
			"LogException":          reflect.ValueOf(e.LogException),
			"Flush":                 reflect.ValueOf(e.Flush),
			"List":                  reflect.ValueOf(e.List),
			"ToMap":                 reflect.ValueOf(e.ToMap),
			"Each":                  reflect.ValueOf(e.Each),
			"Clear":                 reflect.ValueOf(e.Clear),
			"Reset":                 reflect.ValueOf(e.Reset),
			"LoadAllFacts":          reflect.ValueOf(e.LoadAllFacts),
			"AddSearchPath":         reflect.ValueOf(e.AddSearchPath),
			"SearchPaths":           reflect.ValueOf(e.SearchPaths),
			"AddExternalSearchPath": reflect.ValueOf(e.AddExternalSearchPath),
			"ExternalSearchPaths":   reflect.ValueOf(e.ExternalSearchPaths),
		},
		"sysfacts/facts/facts": {
			"Fact":       reflect.ValueOf((*facts.Fact)(nil)),
			"Resolution": reflect.ValueOf((*facts.Resolution)(nil)),
		},
		"sysfacts/execution/execution": {
			"Which":          reflect.ValueOf(execution.Which),
			"Exec":           reflect.ValueOf(execution.Exec),
			"Execute":        reflect.ValueOf(execution.Execute),
			"ExecutionError": reflect.ValueOf((*execution.ExecutionError)(nil)),
		},
	}
}
