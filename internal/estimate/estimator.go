// Package estimate turns a facility description into a yearly electricity,
// CO2 and cost estimate benchmarked against best practice.
package estimate

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enviro-impact/internal/cost"
	"github.com/sells-group/enviro-impact/internal/model"
	"github.com/sells-group/enviro-impact/internal/reference"
	"github.com/sells-group/enviro-impact/internal/resilience"
	"github.com/sells-group/enviro-impact/internal/waterfall"
	"github.com/sells-group/enviro-impact/pkg/electricitymaps"
)

// Emission sources, in precedence order.
const (
	EmissionSourceCustom  = "custom"
	EmissionSourceAPI     = "api"
	EmissionSourceDefault = "default"
)

// PriceProvider returns the average spot price in NOK/kWh for a power grid
// region.
type PriceProvider interface {
	AveragePrice(ctx context.Context, powerGridRegion string) (float64, error)
}

// EmissionProvider returns the latest grid carbon intensity.
type EmissionProvider interface {
	LatestCarbonIntensity(ctx context.Context) (*electricitymaps.Reading, error)
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithPriceProvider enables live prices. A nil guard calls the provider
// directly.
func WithPriceProvider(p PriceProvider, g *resilience.Guard) Option {
	return func(e *Estimator) {
		e.price = p
		e.priceGuard = g
	}
}

// WithEmissionProvider enables live emission factors. A nil guard calls the
// provider directly.
func WithEmissionProvider(p EmissionProvider, g *resilience.Guard) Option {
	return func(e *Estimator) {
		e.emission = p
		e.emissionGuard = g
	}
}

// Estimator runs the estimation pipeline. It holds no per-request state and
// is safe for concurrent use.
type Estimator struct {
	static     *reference.Static
	benchmarks *reference.Benchmarks
	calc       *cost.Calculator

	price         PriceProvider
	priceGuard    *resilience.Guard
	emission      EmissionProvider
	emissionGuard *resilience.Guard
}

// New creates an Estimator over the given reference stores. Without provider
// options every price and emission factor comes from the static defaults.
func New(static *reference.Static, benchmarks *reference.Benchmarks, opts ...Option) *Estimator {
	e := &Estimator{
		static:     static,
		benchmarks: benchmarks,
		calc:       cost.NewCalculator(static.Rates()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Regions returns the supported regions.
func (e *Estimator) Regions() []string { return e.static.Regions() }

// FacilityTypes returns the supported facility types.
func (e *Estimator) FacilityTypes() []string { return e.static.FacilityTypes() }

type emissionFactor struct {
	value     float64
	timestamp *time.Time
}

// Estimate computes the estimate for req. Errors are *model.InputError when
// the request must change and *model.DataError when reference data is broken.
// Provider failures never surface; the static defaults are used instead.
func (e *Estimator) Estimate(ctx context.Context, req model.Request) (*model.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	region, ok := e.static.Region(req.Region)
	if !ok {
		return nil, model.NewInputError("region", req.Region, "unknown region: "+req.Region)
	}
	profile, ok := e.static.Facility(req.FacilityType)
	if !ok {
		return nil, model.NewInputError("facility_type", req.FacilityType, "unknown facility_type: "+req.FacilityType)
	}
	sizeMult, ok := profile.SizeMultipliers[req.Size]
	if !ok {
		return nil, model.NewInputError("size", string(req.Size),
			"size "+string(req.Size)+" is not available for facility_type "+req.FacilityType)
	}
	if region.PowerGridRegion == "" {
		return nil, model.NewDataError("region %s has no power_grid_region", req.Region)
	}
	pgr := region.PowerGridRegion

	// Consumption.
	var (
		kwh         float64
		baselineKWh *float64
		sizeMultOut *float64
	)
	if req.CustomKWh != nil {
		kwh = *req.CustomKWh
	} else {
		if profile.BaselineKWh == nil {
			return nil, model.NewDataError("facility_type %s has no baseline_kwh", req.FacilityType)
		}
		baseline := *profile.BaselineKWh
		kwh = baseline * sizeMult
		baselineKWh = &baseline
		sizeMultOut = &sizeMult
	}
	usage := req.UsagePattern.OrDefault()
	kwh *= usage.KWhModifier()
	regionMult, regionDependent := profile.RegionMultiplier(pgr)
	kwh *= regionMult

	class := profile.Class()
	modifier := e.calc.IndustryModifier(class)

	// Price and emission factor are independent; resolve both concurrently.
	var (
		priceRes    waterfall.Resolution[float64]
		emissionRes waterfall.Resolution[emissionFactor]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		priceRes, err = waterfall.Resolve(gctx, e.priceSources(req, pgr, class)...)
		return err
	})
	g.Go(func() error {
		var err error
		emissionRes, err = waterfall.Resolve(gctx, e.emissionSources(req)...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, model.WrapDataError("resolve price and emission factor", err)
	}
	logFallbacks("price", pgr, priceRes.Failures())
	logFallbacks("emission", pgr, emissionRes.Failures())

	price := priceRes.Value
	factor := emissionRes.Value.value
	co2 := kwh * factor
	costNOK := cost.Cost(kwh, price)

	if !finite(kwh) || !finite(co2) || !finite(costNOK) {
		return nil, model.NewDataError("estimate for %s/%s is not a finite number", req.FacilityType, req.Size)
	}

	zap.L().Debug("estimate: resolved",
		zap.String("region", req.Region),
		zap.String("power_grid_region", pgr),
		zap.String("facility_type", req.FacilityType),
		zap.String("size", string(req.Size)),
		zap.String("usage_pattern", string(usage)),
		zap.Bool("custom_kwh", req.CustomKWh != nil),
		zap.Float64("kwh", kwh),
		zap.Float64("usage_modifier", usage.KWhModifier()),
		zap.Bool("region_dependent", regionDependent),
		zap.Float64("region_multiplier", regionMult),
		zap.String("industry_class", class),
		zap.Float64("industry_modifier", modifier),
		zap.Float64("price_per_kwh", price),
		zap.String("price_source", priceRes.Source),
		zap.Float64("emission_factor", factor),
		zap.String("emission_source", emissionRes.Source),
	)

	return &model.Result{
		Status:           model.StatusValid,
		EstimatedKWh:     cost.Round(kwh, 2),
		EstimatedCO2Kg:   cost.Round(co2, 2),
		EstimatedCostNOK: cost.Round(costNOK, 2),
		Metadata: model.Metadata{
			Region:                  req.Region,
			PowerGridRegion:         pgr,
			IndustryClass:           class,
			IndustryModifier:        modifier,
			PricePerKWh:             cost.Round(price, 3),
			PriceSource:             model.PriceSource(priceRes.Source),
			EmissionFactorUsed:      factor,
			EmissionFactorTimestamp: emissionRes.Value.timestamp,
			EstimatedBaselineKWh:    baselineKWh,
			SizeMultiplier:          sizeMultOut,
			BestPracticeTarget:      e.benchmark(req, kwh, co2, costNOK, price),
		},
	}, nil
}

func (e *Estimator) priceSources(req model.Request, pgr, class string) []waterfall.Source[float64] {
	sources := []waterfall.Source[float64]{
		waterfall.Optional(string(model.PriceSourceCustom), req.CustomPricePerKWh),
	}
	if e.price != nil {
		sources = append(sources, waterfall.Source[float64]{
			Name: string(model.PriceSourceAPI),
			Fetch: func(ctx context.Context) (float64, error) {
				base, err := guarded(ctx, e.priceGuard, func(ctx context.Context) (float64, error) {
					return e.price.AveragePrice(ctx, pgr)
				})
				if err != nil {
					return 0, err
				}
				return e.calc.Effective(base, class), nil
			},
		})
	}
	return append(sources, waterfall.Static(string(model.PriceSourceDefault), e.calc.DefaultPrice(class)))
}

func (e *Estimator) emissionSources(req model.Request) []waterfall.Source[emissionFactor] {
	custom := waterfall.Source[emissionFactor]{
		Name: EmissionSourceCustom,
		Fetch: func(context.Context) (emissionFactor, error) {
			if req.CustomEmissionFactor == nil {
				return emissionFactor{}, waterfall.ErrSkip
			}
			return emissionFactor{value: *req.CustomEmissionFactor}, nil
		},
	}
	sources := []waterfall.Source[emissionFactor]{custom}
	if e.emission != nil {
		sources = append(sources, waterfall.Source[emissionFactor]{
			Name: EmissionSourceAPI,
			Fetch: func(ctx context.Context) (emissionFactor, error) {
				r, err := guarded(ctx, e.emissionGuard, e.emission.LatestCarbonIntensity)
				if err != nil {
					return emissionFactor{}, err
				}
				ts := r.Timestamp
				return emissionFactor{value: r.KgPerKWh, timestamp: &ts}, nil
			},
		})
	}
	return append(sources, waterfall.Static(EmissionSourceDefault, emissionFactor{value: e.static.DefaultEmissionFactor()}))
}

func (e *Estimator) benchmark(req model.Request, kwh, co2, costNOK, price float64) *model.BestPracticeTarget {
	entry, ok := e.benchmarks.Lookup(req.FacilityType, req.Size)
	if !ok {
		return nil
	}
	targetCost := entry.TargetKWh * price
	return &model.BestPracticeTarget{
		TargetKWh:              entry.TargetKWh,
		TargetCO2:              entry.TargetCO2,
		TargetCost:             cost.Round(targetCost, 2),
		PercentAboveTargetKWh:  cost.RoundPtr(cost.PercentAbove(kwh, entry.TargetKWh), 2),
		PercentAboveTargetCO2:  cost.RoundPtr(cost.PercentAbove(co2, entry.TargetCO2), 2),
		PercentAboveTargetCost: cost.RoundPtr(cost.PercentAbove(costNOK, targetCost), 2),
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func guarded[T any](ctx context.Context, g *resilience.Guard, fn func(context.Context) (T, error)) (T, error) {
	if g == nil {
		return fn(ctx)
	}
	return resilience.Call(ctx, g, fn)
}

func logFallbacks(provider, pgr string, failures []waterfall.Attempt) {
	for _, f := range failures {
		zap.L().Warn("estimate: provider failed, using fallback",
			zap.String("provider", provider),
			zap.String("source", f.Source),
			zap.String("power_grid_region", pgr),
			zap.Bool("transient", resilience.IsTransient(f.Err)),
			zap.Error(f.Err),
		)
	}
}
