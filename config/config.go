// Package config loads and saves the YAML description of a solver run.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/grid"
	"github.com/notargets/nhsolve/partitions"
	"github.com/notargets/nhsolve/timeloop"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDtime        = 60.0
	DefaultSteps        = 10
	DefaultDivdampFacO2 = 0.032
	DefaultNx           = 8
	DefaultNy           = 8
	DefaultEdgeLength   = 10000.0
	DefaultTemperature  = 250.0
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Backend names accepted in run.backend
const (
	BackendReference = "reference"
	BackendOCCA      = "occa"
	BackendNative    = "native"
)

type Config struct {
	Run        RunConfig        `yaml:"run"`
	Grid       GridConfig       `yaml:"grid"`
	Atmosphere AtmosphereConfig `yaml:"atmosphere"`
	Nonhydro   dycore.Config    `yaml:"nonhydro"`
}

type RunConfig struct {
	Dtime         float64 `yaml:"dtime"`
	NSteps        int     `yaml:"n_steps"`
	DivdampFacO2  float64 `yaml:"divdamp_fac_o2"`
	PrepAdvection bool    `yaml:"prep_adv"`
	Backend       string  `yaml:"backend"`
	Device        string  `yaml:"device,omitempty"`
	Workers       int     `yaml:"workers,omitempty"`
}

type GridConfig struct {
	Nx         int     `yaml:"nx"`
	Ny         int     `yaml:"ny"`
	EdgeLength float64 `yaml:"edge_length"`
	Partitions int     `yaml:"partitions"`
	Strategy   string  `yaml:"strategy"`
	Rank       int     `yaml:"rank"`
	// AllRanks integrates every partition in one process and refreshes
	// the halos after each substep. Rank is ignored.
	AllRanks bool `yaml:"all_ranks"`
}

type AtmosphereConfig struct {
	Temperature     float64 `yaml:"temperature"`
	SurfacePressure float64 `yaml:"surface_pressure"`
	Wind            float64 `yaml:"wind"`
	DdtVnPhy        float64 `yaml:"ddt_vn_phy"`
	DdtExnerPhy     float64 `yaml:"ddt_exner_phy"`
	GrfTendRho      float64 `yaml:"grf_tend_rho"`
	GrfTendThv      float64 `yaml:"grf_tend_thv"`
	GrfTendW        float64 `yaml:"grf_tend_w"`
	GrfTendVn       float64 `yaml:"grf_tend_vn"`
}

func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			Dtime:        DefaultDtime,
			NSteps:       DefaultSteps,
			DivdampFacO2: DefaultDivdampFacO2,
			Backend:      BackendReference,
		},
		Grid: GridConfig{
			Nx:         DefaultNx,
			Ny:         DefaultNy,
			EdgeLength: DefaultEdgeLength,
			Partitions: 1,
			Strategy:   partitions.BlockPartition.String(),
		},
		Atmosphere: AtmosphereConfig{
			Temperature:     DefaultTemperature,
			SurfacePressure: dycore.P0REF,
		},
		Nonhydro: dycore.DefaultConfig(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every section. The nonhydro section is checked by the
// dycore rules, so a config that passes here is accepted by Init.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	if err := c.Loop().Validate(); err != nil {
		return fail("run: %v", err)
	}
	switch c.Run.Backend {
	case BackendReference, BackendOCCA, BackendNative:
	default:
		return fail("run: unknown backend %q", c.Run.Backend)
	}
	if c.Run.Workers < 0 {
		return fail("run: workers must not be negative")
	}
	if c.Grid.Nx < 3 || c.Grid.Ny < 3 {
		return fail("grid: nx and ny must be at least 3, got %dx%d", c.Grid.Nx, c.Grid.Ny)
	}
	if !(c.Grid.EdgeLength > 0) {
		return fail("grid: edge_length must be positive")
	}
	if c.Grid.Partitions < 1 || c.Grid.Partitions > 2*c.Grid.Nx*c.Grid.Ny {
		return fail("grid: %d partitions for %d cells", c.Grid.Partitions, 2*c.Grid.Nx*c.Grid.Ny)
	}
	if c.Grid.Rank < 0 || c.Grid.Rank >= c.Grid.Partitions {
		return fail("grid: rank %d outside [0, %d)", c.Grid.Rank, c.Grid.Partitions)
	}
	if _, err := partitions.ParseStrategy(c.Grid.Strategy); err != nil {
		return fail("grid: %v", err)
	}
	if !(c.Atmosphere.Temperature > 0) || !(c.Atmosphere.SurfacePressure > 0) {
		return fail("atmosphere: temperature and surface_pressure must be positive")
	}
	if err := c.Nonhydro.Validate(); err != nil {
		return fmt.Errorf("%w: nonhydro: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Loop returns the time loop settings
func (c *Config) Loop() timeloop.Config {
	return timeloop.Config{
		Dtime:         c.Run.Dtime,
		NSteps:        c.Run.NSteps,
		NdynSubsteps:  c.Nonhydro.NdynSubsteps,
		DivdampFacO2:  c.Run.DivdampFacO2,
		PrepAdvection: c.Run.PrepAdvection,
	}
}

// ReferenceAtmosphere returns the background state of the run
func (c *Config) ReferenceAtmosphere() grid.ReferenceAtmosphere {
	return grid.ReferenceAtmosphere{
		T0: c.Atmosphere.Temperature,
		P0: c.Atmosphere.SurfacePressure,
		U0: c.Atmosphere.Wind,
	}
}

// Forcing returns the constant tendencies imposed on every step
func (c *Config) Forcing() grid.Forcing {
	return grid.Forcing{
		DdtVnPhy:    c.Atmosphere.DdtVnPhy,
		DdtExnerPhy: c.Atmosphere.DdtExnerPhy,
		GrfTendRho:  c.Atmosphere.GrfTendRho,
		GrfTendThv:  c.Atmosphere.GrfTendThv,
		GrfTendW:    c.Atmosphere.GrfTendW,
		GrfTendVn:   c.Atmosphere.GrfTendVn,
	}
}
