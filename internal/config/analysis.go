package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/leavitt/internal/catalogue"
	"github.com/banshee-data/leavitt/internal/distance"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.yaml"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// AnalysisConfig is the root configuration for a batch of P-L runs. Pointer
// fields left nil fall back to the package defaults via the Get* methods, so
// partial configs are safe.
type AnalysisConfig struct {
	SensitivityLo *float64 `yaml:"sensitivity_lo,omitempty" json:"sensitivity_lo,omitempty"`
	SensitivityHi *float64 `yaml:"sensitivity_hi,omitempty" json:"sensitivity_hi,omitempty"`
	HaloMargin    *float64 `yaml:"halo_margin,omitempty" json:"halo_margin,omitempty"`

	// Clouds maps a field name to its reference distance in parsecs. SMC and
	// LMC need not be listed.
	Clouds map[string]float64 `yaml:"clouds,omitempty" json:"clouds,omitempty"`

	// Runs lists the analyses to perform. Empty means DefaultRuns.
	Runs []RunSpec `yaml:"runs,omitempty" json:"runs,omitempty"`
}

// RunSpec describes one (class, cloud, mode) analysis.
type RunSpec struct {
	Name      string `yaml:"name" json:"name"`
	Class     string `yaml:"class" json:"class"`
	Cloud     string `yaml:"cloud" json:"cloud"`
	Mode      string `yaml:"mode,omitempty" json:"mode,omitempty"`
	Catalogue string `yaml:"catalogue" json:"catalogue"` // must resolve inside the data dir

	ReferenceDistanceParsecs *float64 `yaml:"reference_distance_pc,omitempty" json:"reference_distance_pc,omitempty"`
	HaloMargin               *float64 `yaml:"halo_margin,omitempty" json:"halo_margin,omitempty"`
	// Calibrate marks the run's cleansed catalogue as a distance model source.
	Calibrate *bool `yaml:"calibrate,omitempty" json:"calibrate,omitempty"`
	// PerStarDistance reads each star's true distance from the catalogue's
	// Dist column, for Galactic fields such as BLG and DISK.
	PerStarDistance *bool `yaml:"per_star_distance,omitempty" json:"per_star_distance,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns the OGLE-IV limits and the eight standard
// runs: Delta Scuti and Classical Cepheids, in both clouds, for fundamental
// and first-overtone pulsators.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		SensitivityLo: ptrFloat64(catalogue.DefaultSensitivityLo),
		SensitivityHi: ptrFloat64(catalogue.DefaultSensitivityHi),
		HaloMargin:    ptrFloat64(catalogue.DefaultHaloMargin),
		Clouds: map[string]float64{
			catalogue.SMC: distance.SMCDistanceParsecs,
			catalogue.LMC: distance.LMCDistanceParsecs,
		},
		Runs: DefaultRuns(),
	}
}

// DefaultRuns returns the standard run matrix. Every run is a calibration
// source, so each (class, mode) pair gets an SMC and an LMC model.
func DefaultRuns() []RunSpec {
	var runs []RunSpec
	for _, class := range []catalogue.VariableClass{catalogue.DeltaScuti, catalogue.ClassicalCepheid} {
		for _, cloud := range []string{catalogue.SMC, catalogue.LMC} {
			for _, mode := range []string{catalogue.ModeFundamental, catalogue.ModeFirstOvertone} {
				runs = append(runs, RunSpec{
					Name:      fmt.Sprintf("%s-%s-%s", class, strings.ToLower(cloud), strings.ToLower(mode)),
					Class:     string(class),
					Cloud:     cloud,
					Mode:      mode,
					Catalogue: fmt.Sprintf("%s%sdata.csv", strings.ToLower(cloud), class),
					Calibrate: ptrBool(true),
				})
			}
		}
	}
	return runs
}

// LoadAnalysisConfig loads an AnalysisConfig from a YAML or JSON file. The
// extension selects the decoder. Files over 1MB are rejected.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" && ext != ".json" {
		return nil, fmt.Errorf("config file must have .yaml, .yml or .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from the
// current directory. Panics if the file cannot be loaded; intended for tests.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *AnalysisConfig) Validate() error {
	if err := c.GetSensitivity().Validate(); err != nil {
		return err
	}
	if c.HaloMargin != nil && *c.HaloMargin < 0 {
		return fmt.Errorf("halo_margin must be non-negative, got %f", *c.HaloMargin)
	}
	for name, d := range c.Clouds {
		if !(d > 0) {
			return fmt.Errorf("clouds.%s: reference distance must be positive, got %f", name, d)
		}
	}

	seen := make(map[string]bool)
	for i, r := range c.Runs {
		if r.Name == "" {
			return fmt.Errorf("runs[%d]: name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("runs[%d]: duplicate run name %q", i, r.Name)
		}
		seen[r.Name] = true
		if !catalogue.VariableClass(r.Class).Valid() {
			return fmt.Errorf("run %s: unknown class %q", r.Name, r.Class)
		}
		if r.Catalogue == "" {
			return fmt.Errorf("run %s: catalogue is required", r.Name)
		}
		if r.HaloMargin != nil && *r.HaloMargin < 0 {
			return fmt.Errorf("run %s: halo_margin must be non-negative, got %f", r.Name, *r.HaloMargin)
		}
		if _, err := c.GetReferenceDistance(r); err != nil && !r.GetPerStarDistance() {
			return fmt.Errorf("run %s: %w", r.Name, err)
		}
	}
	return nil
}

// GetSensitivity returns the apparent-magnitude bounds.
func (c *AnalysisConfig) GetSensitivity() catalogue.Bounds {
	b := catalogue.DefaultBounds()
	if c.SensitivityLo != nil {
		b.Lo = *c.SensitivityLo
	}
	if c.SensitivityHi != nil {
		b.Hi = *c.SensitivityHi
	}
	return b
}

// GetHaloMargin returns the global halo margin in magnitudes.
func (c *AnalysisConfig) GetHaloMargin() float64 {
	if c.HaloMargin == nil {
		return catalogue.DefaultHaloMargin
	}
	return *c.HaloMargin
}

// GetRuns returns the configured runs, or DefaultRuns when none are listed.
func (c *AnalysisConfig) GetRuns() []RunSpec {
	if len(c.Runs) == 0 {
		return DefaultRuns()
	}
	return c.Runs
}

// GetRunHaloMargin returns the run's halo margin, falling back to the global one.
func (c *AnalysisConfig) GetRunHaloMargin(r RunSpec) float64 {
	if r.HaloMargin != nil {
		return *r.HaloMargin
	}
	return c.GetHaloMargin()
}

// GetReferenceDistance resolves the distance a run's stars are placed at: the
// run override, then the clouds table, then the built-in SMC/LMC values.
func (c *AnalysisConfig) GetReferenceDistance(r RunSpec) (float64, error) {
	if r.ReferenceDistanceParsecs != nil {
		if !(*r.ReferenceDistanceParsecs > 0) {
			return 0, fmt.Errorf("reference_distance_pc must be positive, got %f", *r.ReferenceDistanceParsecs)
		}
		return *r.ReferenceDistanceParsecs, nil
	}
	if d, ok := c.Clouds[r.Cloud]; ok {
		return d, nil
	}
	if d, ok := distance.ReferenceDistance(r.Cloud); ok {
		return d, nil
	}
	return 0, fmt.Errorf("no reference distance for cloud %q", r.Cloud)
}

// GetCalibrate reports whether a run is a model calibration source.
func (r RunSpec) GetCalibrate() bool {
	return r.Calibrate != nil && *r.Calibrate
}

// GetPerStarDistance reports whether a run's stars carry their own distances.
func (r RunSpec) GetPerStarDistance() bool {
	return r.PerStarDistance != nil && *r.PerStarDistance
}
