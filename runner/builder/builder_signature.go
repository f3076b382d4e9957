package builder

import (
	"fmt"
	"strings"
)

// GenerateKernelSignature renders the OKL parameter list. Every array is a
// pointer followed by one int per extent, named <name>_size_<i>; scalars
// appear where they are listed.
func GenerateKernelSignature(specs []ParamSpec) string {
	var params []string
	for _, p := range specs {
		if p.Direction == DirectionScalar {
			params = append(params, fmt.Sprintf("const %s %s", p.DataType.CName(), p.Name))
			continue
		}
		qualifier := ""
		if p.IsConst() {
			qualifier = "const "
		}
		params = append(params, fmt.Sprintf("%s%s *%s", qualifier, p.DataType.CName(), p.Name))
		for d := 0; d < p.Rank(); d++ {
			params = append(params, fmt.Sprintf("const int %s_size_%d", p.Name, d))
		}
	}
	return strings.Join(params, ",\n\t")
}

// GenerateKernelDeclaration generates a complete kernel function declaration
func GenerateKernelDeclaration(kernelName string, specs []ParamSpec) string {
	return fmt.Sprintf("@kernel void %s(\n\t%s\n)", kernelName, GenerateKernelSignature(specs))
}
