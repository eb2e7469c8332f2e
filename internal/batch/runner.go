package batch

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enviro-impact/internal/model"
)

// Estimator is the part of the pipeline a batch run needs.
type Estimator interface {
	Estimate(ctx context.Context, req model.Request) (*model.Result, error)
}

// Outcome is the result of one batch row. Exactly one of Result and Err is
// set.
type Outcome struct {
	Line    int
	Request model.Request
	Result  *model.Result
	Err     error
}

// Summary counts outcomes.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Summarize counts successes and failures.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Err != nil {
			s.Failed++
		} else {
			s.Succeeded++
		}
	}
	return s
}

// Run estimates every row with at most concurrency requests in flight.
// Outcomes keep the input order. A row failure is recorded in its outcome;
// Run itself fails only when ctx is cancelled.
func Run(ctx context.Context, est Estimator, rows []Row, concurrency int) ([]Outcome, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	outcomes := make([]Outcome, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, row := range rows {
		outcomes[i] = Outcome{Line: row.Line, Request: row.Request}
		if row.ParseErr != nil {
			outcomes[i].Err = row.ParseErr
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := est.Estimate(gctx, row.Request)
			if err != nil {
				zap.L().Debug("batch: row failed",
					zap.Int("line", row.Line),
					zap.String("region", row.Request.Region),
					zap.String("facility_type", row.Request.FacilityType),
					zap.Error(err),
				)
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, eris.Wrap(err, "batch: run cancelled")
	}

	s := Summarize(outcomes)
	zap.L().Info("batch: complete",
		zap.Int("total", s.Total),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("failed", s.Failed),
	)
	return outcomes, nil
}
