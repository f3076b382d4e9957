package dycore

import (
	"fmt"
	"github.com/notargets/nhsolve/field"
	"strings"
)

const (
	InitFunction = "solve_nh_init_wrapper"
	RunFunction  = "solve_nh_run_wrapper"
)

// InitContract returns the Field declarations of the init call in order
func InitContract() []Decl {
	var a InitArgs
	return Decls(a.Bindings())
}

// RunContract returns the Field declarations of the run call in order
func RunContract() []Decl {
	var a RunArgs
	return Decls(a.Bindings())
}

// Header renders the C declarations of both boundary calls
func Header() string {
	var sb strings.Builder
	sb.WriteString("#pragma once\n#include <stddef.h>\n\n")
	var run RunArgs
	sb.WriteString(field.Prototype(RunFunction, run.Arguments()))
	sb.WriteString("\n")
	var ini InitArgs
	ini.Config = DefaultConfig()
	sb.WriteString(field.Prototype(InitFunction, ini.Arguments()))
	sb.WriteString("\n")
	return sb.String()
}

// CheckBindings verifies every bound Field against its declaration and the
// shape. The first failure is reported by name.
func CheckBindings(bindings []Binding, s Shape) error {
	for _, b := range bindings {
		if err := b.Check(s); err != nil {
			return fmt.Errorf("field %s: %w", b.Name, err)
		}
	}
	return nil
}
