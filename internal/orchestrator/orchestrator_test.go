package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"codecraft/internal/refactor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scripted refactorer; block, when set, holds each call until closed.
type scripted struct {
	mu      sync.Mutex
	results []refactor.Result
	errs    []error
	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
	block   chan struct{}
}

func (s *scripted) Refactor(ctx context.Context, _ refactor.Request) (refactor.Result, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	i := int(s.calls.Add(1)) - 1
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < len(s.errs) && s.errs[i] != nil {
		return refactor.Result{}, s.errs[i]
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return refactor.Result{}, nil
}

var req = refactor.Request{Code: "x", Language: "Go", Focus: refactor.FocusReadability}

func TestInitialStateIsIdle(t *testing.T) {
	o := New(&scripted{})
	s := o.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Nil(t, s.Result)
	assert.Zero(t, s.Version)
}

func TestSubmitSuccessReplacesResult(t *testing.T) {
	svc := &scripted{results: []refactor.Result{
		{ImprovedCode: "one", KeyChanges: []string{"a"}},
		{ImprovedCode: "two", KeyChanges: []string{"b"}},
	}}
	o := New(svc)

	require.NoError(t, o.Submit(context.Background(), req))
	s := o.Snapshot()
	assert.Equal(t, PhaseSuccess, s.Phase())
	assert.Equal(t, "one", s.Result.ImprovedCode)
	require.NotNil(t, s.Request)
	assert.Equal(t, req, *s.Request)

	require.NoError(t, o.Submit(context.Background(), req))
	assert.Equal(t, "two", o.Snapshot().Result.ImprovedCode)
}

func TestFailureKeepsPreviousResult(t *testing.T) {
	svc := &scripted{
		results: []refactor.Result{{ImprovedCode: "kept"}},
		errs:    []error{nil, &refactor.ParseError{Raw: "nope"}},
	}
	o := New(svc)
	require.NoError(t, o.Submit(context.Background(), req))

	err := o.Submit(context.Background(), req)
	require.ErrorIs(t, err, refactor.ErrParseResponse)

	s := o.Snapshot()
	assert.Equal(t, PhaseError, s.Phase())
	assert.Equal(t, "Failed to parse AI response", s.Error)
	require.NotNil(t, s.Result)
	assert.Equal(t, "kept", s.Result.ImprovedCode)
	assert.False(t, s.Loading)
}

func TestDismissClearsOnlyError(t *testing.T) {
	svc := &scripted{
		results: []refactor.Result{{ImprovedCode: "shown"}},
		errs:    []error{nil, errors.New("network down")},
	}
	o := New(svc)
	require.NoError(t, o.Submit(context.Background(), req))
	require.Error(t, o.Submit(context.Background(), req))
	assert.Equal(t, "network down", o.Snapshot().Error)

	o.Dismiss()
	s := o.Snapshot()
	assert.Equal(t, PhaseSuccess, s.Phase())
	assert.Empty(t, s.Error)
	assert.Equal(t, "shown", s.Result.ImprovedCode)

	v := s.Version
	o.Dismiss()
	assert.Equal(t, v, o.Snapshot().Version, "dismiss without an error is a no-op")
}

func TestDismissReturnsToIdle(t *testing.T) {
	o := New(&scripted{errs: []error{refactor.ErrMissingCredential}})
	require.ErrorIs(t, o.Submit(context.Background(), req), refactor.ErrMissingCredential)
	assert.Equal(t, PhaseError, o.Snapshot().Phase())
	o.Dismiss()
	assert.Equal(t, PhaseIdle, o.Snapshot().Phase())
}

func TestSubmitWhileLoadingIsRejected(t *testing.T) {
	svc := &scripted{block: make(chan struct{})}
	o := New(svc)

	done := make(chan error, 1)
	go func() { done <- o.Submit(context.Background(), req) }()
	require.Eventually(t, func() bool { return svc.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, PhaseLoading, o.Snapshot().Phase())

	var wg sync.WaitGroup
	var busy atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if errors.Is(o.Submit(context.Background(), req), ErrBusy) {
				busy.Add(1)
			}
		}()
	}
	wg.Wait()
	close(svc.block)
	require.NoError(t, <-done)

	assert.EqualValues(t, 8, busy.Load())
	assert.EqualValues(t, 1, svc.calls.Load())
	assert.EqualValues(t, 1, svc.maxSeen.Load())
}

func TestBeginClearsError(t *testing.T) {
	o := New(&scripted{})
	o.Finish(refactor.Result{}, errors.New("old"))
	require.Equal(t, PhaseError, o.Snapshot().Phase())
	require.True(t, o.Begin(req))
	s := o.Snapshot()
	assert.Empty(t, s.Error)
	assert.Equal(t, PhaseLoading, s.Phase())
	assert.False(t, o.Begin(req))
}

type emptyErr struct{}

func (emptyErr) Error() string { return "" }

func TestResultKeepsItsLanguage(t *testing.T) {
	o := New(&scripted{
		results: []refactor.Result{{ImprovedCode: "let a"}},
		errs:    []error{nil, errors.New("boom")},
	})
	js := refactor.Request{Code: "var a", Language: "JavaScript", Focus: refactor.FocusReadability}
	require.NoError(t, o.Submit(context.Background(), js))
	assert.Equal(t, "JavaScript", o.Snapshot().ResultLanguage)

	py := refactor.Request{Code: "a = 1", Language: "Python", Focus: refactor.FocusReadability}
	require.True(t, o.Begin(py))
	s := o.Snapshot()
	assert.Equal(t, "Python", s.Request.Language)
	assert.Equal(t, "JavaScript", s.ResultLanguage, "loading request does not relabel the old result")

	require.Error(t, o.Run(context.Background(), py))
	assert.Equal(t, "JavaScript", o.Snapshot().ResultLanguage, "failure keeps the old result's language")
}

func TestMessage(t *testing.T) {
	assert.Equal(t, FallbackMessage, Message(emptyErr{}))
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "No response received from AI", Message(refactor.ErrNoResponse))
	assert.Equal(t, "API key not found in configuration", Message(refactor.ErrMissingCredential))
	assert.Equal(t, "rpc error: quota exceeded", Message(errors.New("rpc error: quota exceeded")), "provider text kept verbatim")
	assert.Equal(t, FallbackMessage, Message(errors.New("  ")))
}

type recorderFunc func(context.Context, refactor.Request, refactor.Result) error

func (f recorderFunc) Record(ctx context.Context, r refactor.Request, res refactor.Result) error {
	return f(ctx, r, res)
}

func TestRecorderSeesSuccessesOnly(t *testing.T) {
	var got []string
	rec := recorderFunc(func(_ context.Context, _ refactor.Request, res refactor.Result) error {
		got = append(got, res.ImprovedCode)
		return errors.New("store offline")
	})
	svc := &scripted{
		results: []refactor.Result{{ImprovedCode: "a"}},
		errs:    []error{nil, errors.New("fail")},
	}
	o := New(svc, WithRecorder(rec))
	require.NoError(t, o.Submit(context.Background(), req), "recorder errors are not request errors")
	require.Error(t, o.Submit(context.Background(), req))
	assert.Equal(t, []string{"a"}, got)
}

func TestSubscribeStreamsTransitions(t *testing.T) {
	svc := &scripted{block: make(chan struct{}), results: []refactor.Result{{ImprovedCode: "z"}}}
	o := New(svc)
	ctx, cancel := context.WithCancel(context.Background())

	ch := o.Subscribe(ctx)
	first := <-ch
	assert.Equal(t, PhaseIdle, first.Phase())

	done := make(chan error, 1)
	go func() { done <- o.Submit(context.Background(), req) }()

	loading := <-ch
	assert.Equal(t, PhaseLoading, loading.Phase())
	close(svc.block)
	require.NoError(t, <-done)

	final := <-ch
	assert.Equal(t, PhaseSuccess, final.Phase())
	assert.Greater(t, final.Version, loading.Version)

	cancel()
	for range ch {
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	o := New(&scripted{results: []refactor.Result{{KeyChanges: []string{"a", "b"}}}})
	require.NoError(t, o.Submit(context.Background(), req))
	s := o.Snapshot()
	s.Result.KeyChanges[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, o.Snapshot().Result.KeyChanges)
}
