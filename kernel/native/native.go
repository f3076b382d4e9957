// Package native forwards the dycore boundary calls to an externally built
// solver library. The cgo binding is compiled with the nhnative build tag and
// links against libnhdycore; without the tag every call reports a backend
// failure.
package native

import (
	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/kernel/status"
	"github.com/notargets/nhsolve/logging"
	"go.uber.org/zap"
)

// Kernel implements dycore.Kernel by calling the native library
type Kernel struct {
	log *zap.Logger
}

// New returns a kernel bound to the native library
func New() *Kernel {
	return &Kernel{log: logging.Logger().Named("native")}
}

// Available reports whether this binary was built with the native library
func Available() bool { return available }

// Init passes the init contract to the library unchanged
func (k *Kernel) Init(a *dycore.InitArgs) int {
	if !available {
		return status.BackendFailure
	}
	code := invokeInit(pack(a.Arguments()))
	if code != status.OK {
		k.log.Warn("native init failed", zap.Int("status", code))
	}
	return code
}

// Run passes the run contract to the library unchanged
func (k *Kernel) Run(a *dycore.RunArgs) int {
	if !available {
		return status.BackendFailure
	}
	code := invokeRun(pack(a.Arguments()))
	if code != status.OK {
		k.log.Warn("native run failed", zap.Int("status", code))
	}
	return code
}

// StatusText implements dycore.StatusDescriber. The library reports the same
// codes as the Go backends.
func (k *Kernel) StatusText(code int) string { return status.Text(code) }
