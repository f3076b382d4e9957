//go:build !nhnative

package native

import "github.com/notargets/nhsolve/kernel/status"

const available = false

func invokeInit(packed) int { return status.BackendFailure }

func invokeRun(packed) int { return status.BackendFailure }
