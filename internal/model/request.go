package model

import "math"

// Size is the coarse facility size class.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Sizes lists every known size class.
var Sizes = []Size{SizeSmall, SizeMedium, SizeLarge}

// Valid reports whether s is one of the known size classes.
func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	default:
		return false
	}
}

// UsagePattern describes how evenly a facility draws power over the year.
type UsagePattern string

const (
	UsageConstant     UsagePattern = "constant"
	UsageIntermittent UsagePattern = "intermittent"
	UsagePeak         UsagePattern = "peak"
)

// UsagePatterns lists every known usage pattern.
var UsagePatterns = []UsagePattern{UsageConstant, UsageIntermittent, UsagePeak}

// Valid reports whether p is a known pattern. The empty pattern is valid and
// means constant.
func (p UsagePattern) Valid() bool {
	switch p {
	case "", UsageConstant, UsageIntermittent, UsagePeak:
		return true
	default:
		return false
	}
}

// KWhModifier returns the factor applied to yearly consumption. Peak usage
// changes when energy is drawn, not how much, so it leaves kWh untouched.
func (p UsagePattern) KWhModifier() float64 {
	switch p {
	case UsageIntermittent:
		return 0.5
	default:
		return 1.0
	}
}

// OrDefault returns constant for the empty pattern.
func (p UsagePattern) OrDefault() UsagePattern {
	if p == "" {
		return UsageConstant
	}
	return p
}

// PriceSource records where the effective electricity price came from.
type PriceSource string

const (
	PriceSourceCustom  PriceSource = "custom"
	PriceSourceAPI     PriceSource = "api"
	PriceSourceDefault PriceSource = "default"
)

// Request is a single facility estimation request.
type Request struct {
	Region               string       `json:"region"`
	FacilityType         string       `json:"facility_type"`
	Size                 Size         `json:"size"`
	CustomKWh            *float64     `json:"custom_kwh,omitempty"`
	UsagePattern         UsagePattern `json:"usage_pattern,omitempty"`
	CustomEmissionFactor *float64     `json:"custom_emission_factor,omitempty"` // kg CO2 per kWh
	CustomPricePerKWh    *float64     `json:"custom_price_per_kwh,omitempty"`   // NOK per kWh
}

// Validate checks the request shape: required fields present and enum values
// known. Membership of region and facility type in reference data is checked
// by the estimator.
func (r Request) Validate() error {
	if r.Region == "" {
		return NewInputError("region", r.Region, "region is required")
	}
	if r.FacilityType == "" {
		return NewInputError("facility_type", r.FacilityType, "facility_type is required")
	}
	if r.Size == "" {
		return NewInputError("size", string(r.Size), "size is required")
	}
	if !r.Size.Valid() {
		return NewInputError("size", string(r.Size), "size must be one of small, medium, large")
	}
	if !r.UsagePattern.Valid() {
		return NewInputError("usage_pattern", string(r.UsagePattern), "usage_pattern must be one of constant, intermittent, peak")
	}
	for _, c := range []struct {
		field string
		v     *float64
	}{
		{"custom_kwh", r.CustomKWh},
		{"custom_emission_factor", r.CustomEmissionFactor},
		{"custom_price_per_kwh", r.CustomPricePerKWh},
	} {
		if c.v != nil && (math.IsNaN(*c.v) || math.IsInf(*c.v, 0)) {
			return NewInputError(c.field, formatFloat(*c.v), c.field+" must be a finite number")
		}
	}
	if r.CustomKWh != nil && *r.CustomKWh <= 0 {
		return NewInputError("custom_kwh", formatFloat(*r.CustomKWh), "custom_kwh must be positive")
	}
	if r.CustomEmissionFactor != nil && *r.CustomEmissionFactor < 0 {
		return NewInputError("custom_emission_factor", formatFloat(*r.CustomEmissionFactor), "custom_emission_factor must not be negative")
	}
	if r.CustomPricePerKWh != nil && *r.CustomPricePerKWh < 0 {
		return NewInputError("custom_price_per_kwh", formatFloat(*r.CustomPricePerKWh), "custom_price_per_kwh must not be negative")
	}
	return nil
}
