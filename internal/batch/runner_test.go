package batch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enviro-impact/internal/model"
)

type fakeEstimator struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (f *fakeEstimator) Estimate(_ context.Context, req model.Request) (*model.Result, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if req.Region == "Atlantis" {
		return nil, model.NewInputError("region", req.Region, "")
	}
	return &model.Result{Status: model.StatusValid, Metadata: model.Metadata{Region: req.Region}}, nil
}

func TestRun_OrderAndFailures(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{Line: 2, Request: model.Request{Region: "Oslo"}},
		{Line: 3, Request: model.Request{Region: "Atlantis"}},
		{Line: 4, Request: model.Request{Region: "Bergen"}},
		{Line: 5, ParseErr: model.NewInputError("custom_kwh", "x", "")},
	}
	est := &fakeEstimator{}

	out, err := Run(context.Background(), est, rows, 2)
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.Equal(t, "Oslo", out[0].Result.Metadata.Region)
	assert.True(t, model.IsInputError(out[1].Err))
	assert.Nil(t, out[1].Result)
	assert.Equal(t, "Bergen", out[2].Result.Metadata.Region)
	assert.Equal(t, 5, out[3].Line)
	assert.Error(t, out[3].Err)

	assert.Equal(t, int32(3), est.calls.Load())
	assert.Equal(t, Summary{Total: 4, Succeeded: 2, Failed: 2}, Summarize(out))
}

func TestRun_RespectsConcurrency(t *testing.T) {
	t.Parallel()

	rows := make([]Row, 20)
	for i := range rows {
		rows[i] = Row{Line: i + 2, Request: model.Request{Region: "Oslo"}}
	}
	est := &fakeEstimator{}

	_, err := Run(context.Background(), est, rows, 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, est.maxSeen.Load(), int32(3))
	assert.Equal(t, int32(20), est.calls.Load())
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []Row{{Line: 2, Request: model.Request{Region: "Oslo"}}}
	_, err := Run(ctx, &fakeEstimator{}, rows, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}
