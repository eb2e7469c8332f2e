package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestUsagePattern_KWhModifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern UsagePattern
		want    float64
	}{
		{UsageConstant, 1.0},
		{UsageIntermittent, 0.5},
		{UsagePeak, 1.0},
		{"", 1.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, tt.pattern.KWhModifier(), 1e-9, "pattern %q", tt.pattern)
	}
}

func TestUsagePattern_OrDefault(t *testing.T) {
	t.Parallel()
	assert.Equal(t, UsageConstant, UsagePattern("").OrDefault())
	assert.Equal(t, UsagePeak, UsagePeak.OrDefault())
}

func TestSize_Valid(t *testing.T) {
	t.Parallel()
	for _, s := range Sizes {
		assert.True(t, s.Valid())
	}
	assert.False(t, Size("huge").Valid())
	assert.False(t, Size("").Valid())
}

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	base := Request{Region: "Oslo", FacilityType: "office_building", Size: SizeMedium}

	tests := []struct {
		name      string
		mutate    func(r *Request)
		wantField string
		wantValue string
	}{
		{name: "valid minimal", mutate: func(*Request) {}},
		{name: "valid with overrides", mutate: func(r *Request) {
			r.CustomKWh = ptr(1000)
			r.UsagePattern = UsagePeak
			r.CustomEmissionFactor = ptr(0)
			r.CustomPricePerKWh = ptr(1.5)
		}},
		{name: "missing region", mutate: func(r *Request) { r.Region = "" }, wantField: "region"},
		{name: "missing facility type", mutate: func(r *Request) { r.FacilityType = "" }, wantField: "facility_type"},
		{name: "missing size", mutate: func(r *Request) { r.Size = "" }, wantField: "size"},
		{name: "unknown size", mutate: func(r *Request) { r.Size = "huge" }, wantField: "size"},
		{name: "unknown pattern", mutate: func(r *Request) { r.UsagePattern = "weekends" }, wantField: "usage_pattern"},
		{name: "zero custom kwh", mutate: func(r *Request) { r.CustomKWh = ptr(0) }, wantField: "custom_kwh"},
		{name: "negative emission factor", mutate: func(r *Request) { r.CustomEmissionFactor = ptr(-0.1) }, wantField: "custom_emission_factor"},
		{name: "negative price", mutate: func(r *Request) { r.CustomPricePerKWh = ptr(-1) }, wantField: "custom_price_per_kwh"},
		{name: "nan custom kwh", mutate: func(r *Request) { r.CustomKWh = ptr(math.NaN()) }, wantField: "custom_kwh", wantValue: "NaN"},
		{name: "infinite custom kwh", mutate: func(r *Request) { r.CustomKWh = ptr(math.Inf(1)) }, wantField: "custom_kwh", wantValue: "+Inf"},
		{name: "nan emission factor", mutate: func(r *Request) { r.CustomEmissionFactor = ptr(math.NaN()) }, wantField: "custom_emission_factor", wantValue: "NaN"},
		{name: "negative infinite price", mutate: func(r *Request) { r.CustomPricePerKWh = ptr(math.Inf(-1)) }, wantField: "custom_price_per_kwh", wantValue: "-Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := base
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var ie *InputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.wantField, ie.Field)
			if tt.wantValue != "" {
				assert.Equal(t, tt.wantValue, ie.Value)
			}
		})
	}
}
