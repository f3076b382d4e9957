package dycore

// Physical constants shared by the kernels and the reference atmosphere
const (
	RD    = 287.04  // gas constant for dry air [J/K/kg]
	CPD   = 1004.64 // specific heat at constant pressure [J/K/kg]
	CVD   = CPD - RD
	GRAV  = 9.80665 // [m/s^2]
	P0REF = 100000.0

	CVDoRD = CVD / RD
	RDoCVD = RD / CVD
	RDoCPD = RD / CPD

	DefaultPhysicsDynamicsTimestepRatio = 5
)
