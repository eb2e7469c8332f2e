package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/enviro-impact/internal/config"
	"github.com/sells-group/enviro-impact/internal/estimate"
	"github.com/sells-group/enviro-impact/internal/reference"
	"github.com/sells-group/enviro-impact/internal/resilience"
	"github.com/sells-group/enviro-impact/pkg/electricitymaps"
	"github.com/sells-group/enviro-impact/pkg/strompriser"
)

// Provider names, also used as circuit breaker names.
const (
	providerPrice    = "price"
	providerEmission = "emission"
)

// initEstimator loads the reference data and wires the live providers that
// have an API key configured. A provider without a key is left out and its
// static default is always used.
func initEstimator(c *config.Config) (*estimate.Estimator, error) {
	static, err := reference.LoadStatic(c.Data.StaticConfigPath)
	if err != nil {
		return nil, err
	}
	bench, err := reference.LoadBenchmarks(c.Data.BenchmarkPath)
	if err != nil {
		return nil, err
	}

	breakers := resilience.NewServiceBreakers(
		resilience.FromCircuitConfig(c.Resilience.FailureThreshold, c.Resilience.ResetTimeoutSecs),
	)

	var opts []estimate.Option

	if c.Strompriser.Key != "" {
		timeout := seconds(c.Strompriser.TimeoutSecs)
		spOpts := []strompriser.Option{
			strompriser.WithBaseURL(c.Strompriser.BaseURL),
			strompriser.WithHTTPClient(httpClient(timeout)),
		}
		if l := limiter(c.Strompriser.RequestsPerSecond); l != nil {
			spOpts = append(spOpts, strompriser.WithRateLimiter(l))
		}
		client := strompriser.NewClient(c.Strompriser.Key, spOpts...)
		opts = append(opts, estimate.WithPriceProvider(client,
			resilience.NewGuard(breakers.Get(providerPrice), timeout)))
	} else {
		zap.L().Info("price provider disabled, using default price", zap.String("missing", "strompriser.key"))
	}

	if c.ElectricityMaps.Key != "" {
		timeout := seconds(c.ElectricityMaps.TimeoutSecs)
		emOpts := []electricitymaps.Option{
			electricitymaps.WithBaseURL(c.ElectricityMaps.BaseURL),
			electricitymaps.WithCountryCode(c.ElectricityMaps.CountryCode),
			electricitymaps.WithHTTPClient(httpClient(timeout)),
		}
		if l := limiter(c.ElectricityMaps.RequestsPerSecond); l != nil {
			emOpts = append(emOpts, electricitymaps.WithRateLimiter(l))
		}
		client := electricitymaps.NewClient(c.ElectricityMaps.Key, emOpts...)
		opts = append(opts, estimate.WithEmissionProvider(client,
			resilience.NewGuard(breakers.Get(providerEmission), timeout)))
	} else {
		zap.L().Info("emission provider disabled, using default factor", zap.String("missing", "electricitymaps.key"))
	}

	return estimate.New(static, bench, opts...), nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// httpClient bounds each provider call by the configured timeout. Zero means
// the guard deadline alone applies.
func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// limiter returns nil when rps is not positive.
func limiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
}
