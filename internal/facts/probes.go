package facts

import (
	"os"
	"runtime"
)

// DefaultProbers returns the minimal built-in prober set used by the
// CLI. Full OS and hardware probing is a separate concern; these exist
// so the binary produces something useful out of the box.
func DefaultProbers() []Prober {
	return []Prober{
		ProberFunc(probeKernel),
		ProberFunc(probeHostname),
	}
}

func probeKernel(add func(name string, value Value)) {
	add("kernel", runtime.GOOS)
	add("architecture", runtime.GOARCH)
}

func probeHostname(add func(name string, value Value)) {
	hostname, err := os.Hostname()
	if err != nil {
		return
	}
	add("hostname", hostname)
}
