// Package status holds the integer codes returned across the solver boundary
// by the kernels of this module.
package status

import "fmt"

const (
	OK = iota
	InvalidConfig
	InconsistentGeometry
	NotInitialized
	InvalidStep
	Unstable
	BackendFailure
)

var text = map[int]string{
	OK:                   "success",
	InvalidConfig:        "invalid scalar configuration",
	InconsistentGeometry: "inconsistent geometry or metric fields",
	NotInitialized:       "run called before a successful init",
	InvalidStep:          "invalid step parameters or field shapes",
	Unstable:             "non-finite values in the new state",
	BackendFailure:       "device or backend failure",
}

// Text describes a code; unknown codes are reported as opaque
func Text(code int) string {
	if s, ok := text[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown status %d", code)
}
