// Package config resolves the simulator configuration from built-in
// defaults, an optional YAML file, and command-line overrides applied by the
// caller. Validation happens once, before any cache is allocated.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/IvanBrykalov/cachesim/cache"
	"github.com/IvanBrykalov/cachesim/policy"
	"github.com/IvanBrykalov/cachesim/sim"
)

// CacheConfig is the user-facing geometry of one cache level.
type CacheConfig struct {
	BlockSize  int  `yaml:"blocksize"`
	Assoc      int  `yaml:"assoc"`
	Size       int  `yaml:"size"`
	LowTagBits uint `yaml:"lowtagbits"`
}

func (c CacheConfig) geometry() cache.Geometry {
	return cache.Geometry{
		BlockSize:  c.BlockSize,
		Assoc:      c.Assoc,
		Size:       c.Size,
		LowTagBits: c.LowTagBits,
	}
}

// Config is the full simulator configuration.
type Config struct {
	Cores       int    `yaml:"cores"`
	Policy      string `yaml:"policy"`
	UseL2       bool   `yaml:"l2"`
	Limit       int    `yaml:"limit"`
	GateRegions bool   `yaml:"gate_regions"`

	L1I CacheConfig `yaml:"l1i"`
	L1D CacheConfig `yaml:"l1d"`
	L2  CacheConfig `yaml:"l2cache"`
}

// Default returns the configuration used when nothing is overridden:
// 8-way 16 KiB L1 caches with 64-byte blocks, a 16-way 2 MiB L2 (built only
// when l2 is enabled), LRU replacement, and a top-32 report.
func Default() Config {
	return Config{
		Cores:  1,
		Policy: "lru",
		Limit:  32,
		L1I:    CacheConfig{BlockSize: 64, Assoc: 8, Size: 64 * 8 * 32, LowTagBits: 53},
		L1D:    CacheConfig{BlockSize: 64, Assoc: 8, Size: 64 * 8 * 32, LowTagBits: 53},
		L2:     CacheConfig{BlockSize: 64, Assoc: 16, Size: 64 * 16 * 2048, LowTagBits: 45},
	}
}

// Load reads a YAML file on top of the defaults. Fields absent from the
// file keep their default values; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Params validates the configuration and converts it into hierarchy
// parameters. Geometry and policy errors surface here, naming the cache and
// the violated relationship, before anything is allocated.
func (c Config) Params() (sim.Params, error) {
	if c.Cores <= 0 {
		return sim.Params{}, fmt.Errorf("core count must be positive, got %d", c.Cores)
	}
	kind, err := policy.ParseKind(c.Policy)
	if err != nil {
		return sim.Params{}, err
	}

	p := sim.Params{
		Cores:       c.Cores,
		Policy:      kind,
		L1I:         c.L1I.geometry(),
		L1D:         c.L1D.geometry(),
		GateRegions: c.GateRegions,
	}
	if err := p.L1D.Validate(); err != nil {
		return sim.Params{}, fmt.Errorf("l1d: %w", err)
	}
	if err := p.L1I.Validate(); err != nil {
		return sim.Params{}, fmt.Errorf("l1i: %w", err)
	}
	if c.UseL2 {
		g := c.L2.geometry()
		if err := g.Validate(); err != nil {
			return sim.Params{}, fmt.Errorf("l2: %w", err)
		}
		p.L2 = &g
	}
	return p, nil
}
