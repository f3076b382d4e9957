package dycore

// Params holds quantities derived once from Config
type Params struct {
	Alin float64
	Df32 float64
	Dz32 float64
	Df42 float64
	Dz42 float64
	Bqdr float64
	Aqdr float64

	WgtNnowVel float64
	WgtNnewVel float64

	cfg Config
}

// NewParams derives the divergence damping profile coefficients and the
// velocity advection weights. The config should already be validated, otherwise
// the quadratic coefficients may be infinite.
func NewParams(cfg Config) Params {
	p := Params{cfg: cfg}
	p.Alin = (cfg.DivdampFac2 - cfg.DivdampFac) / (cfg.DivdampZ2 - cfg.DivdampZ)
	p.Df32 = cfg.DivdampFac3 - cfg.DivdampFac2
	p.Dz32 = cfg.DivdampZ3 - cfg.DivdampZ2
	p.Df42 = cfg.DivdampFac4 - cfg.DivdampFac2
	p.Dz42 = cfg.DivdampZ4 - cfg.DivdampZ2
	p.Bqdr = (p.Df42*p.Dz32 - p.Df32*p.Dz42) / (p.Dz32 * p.Dz42 * (p.Dz42 - p.Dz32))
	p.Aqdr = p.Df32/p.Dz32 - p.Bqdr*p.Dz32

	p.WgtNnowVel = 0.5 - cfg.VelAdvOffctr
	p.WgtNnewVel = 0.5 + cfg.VelAdvOffctr
	return p
}

// EnhancedDivdampFactor is the fourth order damping coefficient at height z:
// constant below divdamp_z, linear up to divdamp_z2, quadratic through
// divdamp_z3 up to divdamp_z4 and constant above.
func (p Params) EnhancedDivdampFactor(z float64) float64 {
	c := p.cfg
	switch {
	case z <= c.DivdampZ:
		return c.DivdampFac
	case z <= c.DivdampZ2:
		return c.DivdampFac + (z-c.DivdampZ)*p.Alin
	case z <= c.DivdampZ4:
		dz := z - c.DivdampZ2
		return c.DivdampFac2 + dz*(p.Aqdr+dz*p.Bqdr)
	default:
		return c.DivdampFac4
	}
}

// VelocityWeights returns the ntl1/ntl2 weights applied to the advective
// tendencies. The initial step and scheme 5 use ntl1 only.
func (p Params) VelocityWeights(atInitialTimestep bool) (float64, float64) {
	if atInitialTimestep || p.cfg.TimeScheme == TimeSchemeMostEfficient {
		return 1, 0
	}
	return p.WgtNnowVel, p.WgtNnewVel
}
