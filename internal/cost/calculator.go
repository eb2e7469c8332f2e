// Package cost prices electricity consumption from configured rates.
package cost

import "math"

// DefaultIndustryClass is used when a facility declares no industry class.
const DefaultIndustryClass = "household"

// Rates holds static pricing configuration.
type Rates struct {
	DefaultPricePerKWh float64            `yaml:"default_price_per_kwh" json:"default_price_per_kwh"` // NOK per kWh
	IndustryModifiers  map[string]float64 `yaml:"industry_classes" json:"industry_classes"`
}

// Calculator computes effective prices and costs.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// IndustryModifier returns the price scale for an industry class. The empty
// class is treated as household; unmapped classes scale by 1.0.
func (c *Calculator) IndustryModifier(class string) float64 {
	if class == "" {
		class = DefaultIndustryClass
	}
	if m, ok := c.rates.IndustryModifiers[class]; ok {
		return m
	}
	return 1.0
}

// Effective applies the industry modifier to a base price.
func (c *Calculator) Effective(base float64, class string) float64 {
	return base * c.IndustryModifier(class)
}

// DefaultPrice returns the industry-adjusted static default price.
func (c *Calculator) DefaultPrice(class string) float64 {
	return c.Effective(c.rates.DefaultPricePerKWh, class)
}

// Cost returns the yearly cost in NOK for kwh at pricePerKWh.
func Cost(kwh, pricePerKWh float64) float64 {
	return kwh * pricePerKWh
}

// PercentAbove returns how far actual exceeds target in percent of target.
// It returns nil when target is zero or not a finite number.
func PercentAbove(actual, target float64) *float64 {
	if target == 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return nil
	}
	pct := (actual - target) / target * 100
	return &pct
}
