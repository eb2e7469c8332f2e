package model

import "time"

// StatusValid is the status reported for every successful estimate.
const StatusValid = "valid"

// Result is the priced and benchmarked outcome of an estimate. The top-level
// figures are rounded for display.
type Result struct {
	Status           string   `json:"status"`
	EstimatedKWh     float64  `json:"estimated_kwh"`
	EstimatedCO2Kg   float64  `json:"estimated_co2_kg"`
	EstimatedCostNOK float64  `json:"estimated_cost_nok"`
	Metadata         Metadata `json:"metadata"`
}

// Metadata explains how the estimate was produced.
type Metadata struct {
	Region                  string      `json:"region"`
	PowerGridRegion         string      `json:"power_grid_region"`
	IndustryClass           string      `json:"industry_class"`
	IndustryModifier        float64     `json:"industry_modifier"`
	PricePerKWh             float64     `json:"price_per_kwh"`
	PriceSource             PriceSource `json:"price_source"`
	EmissionFactorUsed      float64     `json:"emission_factor_used"`
	EmissionFactorTimestamp *time.Time  `json:"emission_factor_timestamp"`

	// Set only when consumption was derived from the facility baseline.
	EstimatedBaselineKWh *float64 `json:"estimated_baseline_kwh,omitempty"`
	SizeMultiplier       *float64 `json:"size_multiplier,omitempty"`

	BestPracticeTarget *BestPracticeTarget `json:"best_practice_target"`
}

// BestPracticeTarget compares the estimate against the efficient reference
// facility of the same type and size. A nil percentage means the target was
// zero and no comparison is possible.
type BestPracticeTarget struct {
	TargetKWh              float64  `json:"target_kwh"`
	TargetCO2              float64  `json:"target_co2"`
	TargetCost             float64  `json:"target_cost"`
	PercentAboveTargetKWh  *float64 `json:"percent_above_target_kwh"`
	PercentAboveTargetCO2  *float64 `json:"percent_above_target_co2"`
	PercentAboveTargetCost *float64 `json:"percent_above_target_cost"`
}
