package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeeportnewsss/nww/internal/alert/dto"
	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/pkg/common"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

type fakePipeline struct {
	runs    atomic.Int32
	active  atomic.Int32
	overlap atomic.Bool
	runFunc func(ctx context.Context)
}

func (f *fakePipeline) GetType() entity.SourceType { return entity.SourceTypeRSIOversold }

func (f *fakePipeline) Run(ctx context.Context) dto.RunResult {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.active.Add(-1)
	f.runs.Add(1)
	if f.runFunc != nil {
		f.runFunc(ctx)
	}
	return dto.RunResult{Source: f.GetType(), Status: common.SUCCESS}
}

func TestCronScheduler_RegisterRejectsInvalidSpec(t *testing.T) {
	s := NewCronScheduler(time.UTC, logger.NewNop())

	err := s.Register("every morning", &fakePipeline{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rsi_oversold")

	assert.NoError(t, s.Register("30 9 * * 1-5", &fakePipeline{}))
	assert.NoError(t, s.Register("@every 1h", &fakePipeline{}))
}

func TestCronScheduler_RunsDoNotOverlap(t *testing.T) {
	s := NewCronScheduler(time.UTC, logger.NewNop())
	var results atomic.Int32
	s.OnResult = func(r dto.RunResult) {
		assert.Equal(t, common.SUCCESS, r.Status)
		results.Add(1)
	}

	p := &fakePipeline{runFunc: func(context.Context) { time.Sleep(10 * time.Millisecond) }}
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			s.runLocked(p)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	assert.EqualValues(t, 4, p.runs.Load())
	assert.EqualValues(t, 4, results.Load())
	assert.False(t, p.overlap.Load())
}

func TestCronScheduler_StopCancelsRunningJob(t *testing.T) {
	s := NewCronScheduler(time.UTC, logger.NewNop())
	started := make(chan struct{})
	p := &fakePipeline{runFunc: func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}}

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	finished := make(chan struct{})
	go func() {
		s.runLocked(p)
		close(finished)
	}()
	<-started

	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("running job was not cancelled")
	}

	// jobs fired after shutdown are dropped
	s.Stop()
	s.runLocked(p)
	assert.EqualValues(t, 1, p.runs.Load())
}
