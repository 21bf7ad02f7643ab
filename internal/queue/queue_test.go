package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func testBackoff() *model.Backoff {
	return &model.Backoff{Type: model.BackoffFixed, Delay: 5 * time.Millisecond}
}

func TestEnqueue_ProcessesJob(t *testing.T) {
	s := New(Options{})

	done := make(chan *model.Job, 1)
	s.Register(model.JobCompanyEnrichment, func(_ context.Context, job *model.Job) error {
		done <- job
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	id, err := s.Enqueue(model.JobCompanyEnrichment, model.EnrichmentPayload{CompanyID: 42}, EnqueueOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	select {
	case job := <-done:
		assert.Equal(t, id, job.ID)
		payload, ok := job.Payload.(model.EnrichmentPayload)
		require.True(t, ok)
		assert.Equal(t, int64(42), payload.CompanyID)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestEnqueue_BeforeStart_DoesNotBlock(t *testing.T) {
	s := New(Options{})

	var calls atomic.Int32
	s.Register(model.JobEmail, func(_ context.Context, _ *model.Job) error {
		calls.Add(1)
		return nil
	})

	for i := 0; i < 10; i++ {
		_, err := s.Enqueue(model.JobEmail, model.EmailPayload{}, EnqueueOptions{})
		require.NoError(t, err)
	}
	assert.Equal(t, 10, s.Pending())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return calls.Load() == 10
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRetry_BoundedAttempts(t *testing.T) {
	s := New(Options{})

	var calls atomic.Int32
	s.Register(model.JobCompanyEnrichment, func(_ context.Context, _ *model.Job) error {
		calls.Add(1)
		return eris.New("boom")
	})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	_, err := s.Enqueue(model.JobCompanyEnrichment, nil, EnqueueOptions{
		Attempts: 2,
		Backoff:  testBackoff(),
	})
	require.NoError(t, err)

	// Handler must be invoked exactly twice: the first attempt plus one retry.
	assert.Eventually(t, func() bool {
		return calls.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetry_SuccessAfterFailure(t *testing.T) {
	s := New(Options{})

	var calls atomic.Int32
	done := make(chan struct{})
	s.Register(model.JobEmployeeDiscovery, func(_ context.Context, _ *model.Job) error {
		if calls.Add(1) < 3 {
			return eris.New("transient")
		}
		close(done)
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	_, err := s.Enqueue(model.JobEmployeeDiscovery, nil, EnqueueOptions{
		Attempts: 5,
		Backoff:  testBackoff(),
	})
	require.NoError(t, err)

	select {
	case <-done:
		assert.Equal(t, int32(3), calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestFIFO_SingleWorkerOrder(t *testing.T) {
	s := New(Options{Workers: 1})

	var mu sync.Mutex
	var order []int64
	s.Register(model.JobCompanyEnrichment, func(_ context.Context, job *model.Job) error {
		mu.Lock()
		order = append(order, job.Payload.(model.EnrichmentPayload).CompanyID)
		mu.Unlock()
		return nil
	})

	for i := int64(1); i <= 5; i++ {
		_, err := s.Enqueue(model.JobCompanyEnrichment, model.EnrichmentPayload{CompanyID: i}, EnqueueOptions{})
		require.NoError(t, err)
	}

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 5
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, order)
}

func TestUnknownKind_DroppedWithoutRetry(t *testing.T) {
	s := New(Options{})

	var calls atomic.Int32
	s.Register(model.JobEmail, func(_ context.Context, _ *model.Job) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	_, err := s.Enqueue(model.JobTaskGeneration, nil, EnqueueOptions{Attempts: 3, Backoff: testBackoff()})
	require.NoError(t, err)
	_, err = s.Enqueue(model.JobEmail, nil, EnqueueOptions{})
	require.NoError(t, err)

	// The email job behind the unknown-kind job still runs.
	assert.Eventually(t, func() bool {
		return calls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandlerPanic_IsolatedAndRetried(t *testing.T) {
	s := New(Options{})

	var calls atomic.Int32
	s.Register(model.JobCompanyEnrichment, func(_ context.Context, _ *model.Job) error {
		calls.Add(1)
		panic("handler bug")
	})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	_, err := s.Enqueue(model.JobCompanyEnrichment, nil, EnqueueOptions{
		Attempts: 2,
		Backoff:  testBackoff(),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return calls.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorkerPool_ConcurrentProcessing(t *testing.T) {
	s := New(Options{Workers: 4})

	var active, peak atomic.Int32
	s.Register(model.JobCompanyEnrichment, func(_ context.Context, _ *model.Job) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		active.Add(-1)
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	for i := 0; i < 8; i++ {
		_, err := s.Enqueue(model.JobCompanyEnrichment, nil, EnqueueOptions{})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return s.Pending() == 0 && active.Load() == 0 && peak.Load() > 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestStop_WaitsForInflight(t *testing.T) {
	s := New(Options{})

	started := make(chan struct{})
	var finished atomic.Bool
	s.Register(model.JobCompanyEnrichment, func(_ context.Context, _ *model.Job) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	require.NoError(t, s.Start(context.Background()))

	_, err := s.Enqueue(model.JobCompanyEnrichment, nil, EnqueueOptions{})
	require.NoError(t, err)

	<-started
	s.Stop()
	assert.True(t, finished.Load(), "Stop must wait for the in-flight handler")
}

func TestStart_Twice_Errors(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Error(t, s.Start(context.Background()))
}

func TestStop_WithoutStart_Returns(t *testing.T) {
	s := New(Options{})
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop on a never-started service must return immediately")
	}
}
