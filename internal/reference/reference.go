// Package reference loads the immutable facility, region and benchmark tables
// the estimator reads from.
package reference

import (
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/enviro-impact/internal/cost"
	"github.com/sells-group/enviro-impact/internal/model"
)

//go:embed data/*.json
var defaults embed.FS

const (
	defaultStaticFile    = "data/static_config.json"
	defaultBenchmarkFile = "data/benchmark_data.json"
)

// RegionConfig maps a user-facing region to its power grid region.
type RegionConfig struct {
	PowerGridRegion string `json:"power_grid_region" yaml:"power_grid_region"`
}

// FacilityProfile describes the consumption model of one facility type.
type FacilityProfile struct {
	BaselineKWh     *float64               `json:"baseline_kwh" yaml:"baseline_kwh"`
	SizeMultipliers map[model.Size]float64 `json:"size_multipliers" yaml:"size_multipliers"`
	IndustryClass   string                 `json:"industry_class,omitempty" yaml:"industry_class,omitempty"`

	// Only set for facility types whose consumption depends on the grid
	// region, e.g. data centers.
	PowerRegionMultipliers map[string]float64 `json:"power_region_multipliers,omitempty" yaml:"power_region_multipliers,omitempty"`
}

// Class returns the industry class, defaulting to household.
func (p FacilityProfile) Class() string {
	if p.IndustryClass == "" {
		return cost.DefaultIndustryClass
	}
	return p.IndustryClass
}

// RegionMultiplier returns the consumption multiplier for a power grid
// region. ok is false when the profile is not region dependent.
func (p FacilityProfile) RegionMultiplier(powerGridRegion string) (m float64, ok bool) {
	if p.PowerRegionMultipliers == nil {
		return 1.0, false
	}
	if m, found := p.PowerRegionMultipliers[powerGridRegion]; found {
		return m, true
	}
	return 1.0, true
}

type staticFile struct {
	DefaultPricePerKWh    float64                    `json:"default_price_per_kwh" yaml:"default_price_per_kwh"`
	DefaultEmissionFactor float64                    `json:"default_emission_factor" yaml:"default_emission_factor"`
	IndustryClasses       map[string]float64         `json:"industry_classes" yaml:"industry_classes"`
	Regions               map[string]RegionConfig    `json:"regions" yaml:"regions"`
	FacilityTypes         map[string]FacilityProfile `json:"facility_types" yaml:"facility_types"`
}

// Static is the read-only static reference store. It is never mutated after
// loading and is safe for concurrent use.
type Static struct {
	data          staticFile
	regions       []string
	facilityTypes []string
}

// LoadStatic reads the static configuration from path, or the embedded
// defaults when path is empty.
func LoadStatic(path string) (*Static, error) {
	var f staticFile
	if err := load(path, defaultStaticFile, &f); err != nil {
		return nil, eris.Wrap(err, "reference: load static config")
	}
	return NewStatic(f.DefaultPricePerKWh, f.DefaultEmissionFactor, f.IndustryClasses, f.Regions, f.FacilityTypes), nil
}

// NewStatic builds a store from in-memory tables.
func NewStatic(defaultPrice, defaultEmission float64, industry map[string]float64, regions map[string]RegionConfig, facilities map[string]FacilityProfile) *Static {
	s := &Static{data: staticFile{
		DefaultPricePerKWh:    defaultPrice,
		DefaultEmissionFactor: defaultEmission,
		IndustryClasses:       industry,
		Regions:               regions,
		FacilityTypes:         facilities,
	}}
	s.regions = sortedKeys(regions)
	s.facilityTypes = sortedKeys(facilities)
	return s
}

// Region looks up a user-facing region.
func (s *Static) Region(name string) (RegionConfig, bool) {
	rc, ok := s.data.Regions[name]
	return rc, ok
}

// Facility looks up a facility type profile.
func (s *Static) Facility(name string) (FacilityProfile, bool) {
	fp, ok := s.data.FacilityTypes[name]
	return fp, ok
}

// Rates returns the pricing tables for a cost.Calculator.
func (s *Static) Rates() cost.Rates {
	return cost.Rates{
		DefaultPricePerKWh: s.data.DefaultPricePerKWh,
		IndustryModifiers:  s.data.IndustryClasses,
	}
}

// DefaultPricePerKWh returns the fallback spot price in NOK per kWh.
func (s *Static) DefaultPricePerKWh() float64 { return s.data.DefaultPricePerKWh }

// DefaultEmissionFactor returns the fallback grid intensity in kg CO2 per kWh.
func (s *Static) DefaultEmissionFactor() float64 { return s.data.DefaultEmissionFactor }

// Regions returns the supported region names, sorted.
func (s *Static) Regions() []string {
	return append([]string(nil), s.regions...)
}

// FacilityTypes returns the supported facility types, sorted.
func (s *Static) FacilityTypes() []string {
	return append([]string(nil), s.facilityTypes...)
}

// BenchmarkEntry is the best-practice target for one facility type and size.
type BenchmarkEntry struct {
	TargetKWh float64 `json:"target_kwh" yaml:"target_kwh"`
	TargetCO2 float64 `json:"target_co2" yaml:"target_co2"` // kg per year
}

// Benchmarks is the read-only best-practice dataset, keyed by facility type
// then size.
type Benchmarks struct {
	entries map[string]map[model.Size]BenchmarkEntry
}

// LoadBenchmarks reads benchmark data from path, or the embedded defaults
// when path is empty.
func LoadBenchmarks(path string) (*Benchmarks, error) {
	entries := make(map[string]map[model.Size]BenchmarkEntry)
	if err := load(path, defaultBenchmarkFile, &entries); err != nil {
		return nil, eris.Wrap(err, "reference: load benchmarks")
	}
	return NewBenchmarks(entries), nil
}

// NewBenchmarks wraps in-memory benchmark entries.
func NewBenchmarks(entries map[string]map[model.Size]BenchmarkEntry) *Benchmarks {
	return &Benchmarks{entries: entries}
}

// Lookup returns the entry for a facility type and size.
func (b *Benchmarks) Lookup(facilityType string, size model.Size) (BenchmarkEntry, bool) {
	if b == nil {
		return BenchmarkEntry{}, false
	}
	bySize, ok := b.entries[facilityType]
	if !ok {
		return BenchmarkEntry{}, false
	}
	e, ok := bySize[size]
	return e, ok
}

// load decodes path into v, choosing YAML or JSON by extension. An empty
// path reads the embedded default file.
func load(path, embedded string, v any) error {
	var (
		raw []byte
		err error
	)
	if path == "" {
		path = embedded
		raw, err = defaults.ReadFile(embedded)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, v); err != nil {
			return eris.Wrapf(err, "parse yaml %s", path)
		}
	default:
		if err := json.Unmarshal(raw, v); err != nil {
			return eris.Wrapf(err, "parse json %s", path)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
