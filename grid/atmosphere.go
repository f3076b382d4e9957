package grid

import (
	"math"

	"github.com/notargets/nhsolve/dycore"
)

// ReferenceAtmosphere is an isothermal dry atmosphere in hydrostatic balance
type ReferenceAtmosphere struct {
	T0 float64 // temperature [K]
	P0 float64 // surface pressure [Pa]
	U0 float64 // uniform background wind along x [m/s]
}

// DefaultAtmosphere returns a 250 K isothermal atmosphere at rest
func DefaultAtmosphere() ReferenceAtmosphere {
	return ReferenceAtmosphere{T0: 250, P0: dycore.P0REF}
}

// Pressure at height z
func (a ReferenceAtmosphere) Pressure(z float64) float64 {
	return a.P0 * math.Exp(-dycore.GRAV*z/(dycore.RD*a.T0))
}

// Exner function at height z
func (a ReferenceAtmosphere) Exner(z float64) float64 {
	return math.Pow(a.Pressure(z)/dycore.P0REF, dycore.RDoCPD)
}

// Theta is the potential temperature at height z
func (a ReferenceAtmosphere) Theta(z float64) float64 { return a.T0 / a.Exner(z) }

// Rho is the density at height z
func (a ReferenceAtmosphere) Rho(z float64) float64 { return a.Pressure(z) / (dycore.RD * a.T0) }

// DExnerDz is the vertical exner gradient, -g/(cpd*theta)
func (a ReferenceAtmosphere) DExnerDz(z float64) float64 {
	return -dycore.GRAV / (dycore.CPD * a.Theta(z))
}

// DThetaDz is the vertical potential temperature gradient
func (a ReferenceAtmosphere) DThetaDz(z float64) float64 {
	return a.Theta(z) * dycore.GRAV / (dycore.CPD * a.T0)
}
