// Package orchestrator owns the request lifecycle state
// (idle/loading/success/error) that the presentation layer renders.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"codecraft/internal/refactor"
)

// FallbackMessage is shown when a failure carries no message.
const FallbackMessage = "Something went wrong. Please check your API key and try again."

// ErrBusy is returned by Submit while a request is already in flight.
var ErrBusy = errors.New("a refactor request is already in progress")

// Phase is the derived UI state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// Snapshot is an immutable copy of the orchestrator state.
type Snapshot struct {
	Loading bool
	Result  *refactor.Result
	// ResultLanguage is the language of the request that produced Result.
	// It can differ from Request.Language while a newer request is loading
	// or after it failed.
	ResultLanguage string
	Error          string
	// Request is the last submitted request, used to refill the form.
	Request *refactor.Request
	Version uint64
}

// Phase derives the visible state: loading wins over error, error over success.
func (s Snapshot) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Error != "":
		return PhaseError
	case s.Result != nil:
		return PhaseSuccess
	default:
		return PhaseIdle
	}
}

// Recorder is notified after every successful request.
type Recorder interface {
	Record(ctx context.Context, req refactor.Request, res refactor.Result) error
}

// Orchestrator mediates between the presentation layer and the refactor client.
type Orchestrator struct {
	svc      refactor.Refactorer
	recorder Recorder
	log      *zap.Logger

	mu         sync.Mutex
	loading    bool
	result     *refactor.Result
	resultLang string
	errMsg     string
	request    *refactor.Request
	version    uint64

	subs   map[int]chan Snapshot
	nextID int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder records successful results (e.g. into history).
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func New(svc refactor.Refactorer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		svc:  svc,
		log:  zap.NewNop(),
		subs: make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.Named("orchestrator")
	return o
}

// Begin moves idle|success|error to loading and clears the error. It
// returns false, changing nothing, when a request is already in flight.
func (o *Orchestrator) Begin(req refactor.Request) bool {
	o.mu.Lock()
	if o.loading {
		o.mu.Unlock()
		return false
	}
	o.loading = true
	o.errMsg = ""
	r := req
	o.request = &r
	o.bumpLocked()
	o.mu.Unlock()
	return true
}

// Finish resolves the in-flight request. On success the result is replaced;
// on failure the previous result is kept and the error message set.
func (o *Orchestrator) Finish(res refactor.Result, err error) {
	o.mu.Lock()
	o.loading = false
	if err != nil {
		o.errMsg = Message(err)
	} else {
		r := res
		o.result = &r
		o.resultLang = ""
		if o.request != nil {
			o.resultLang = o.request.Language
		}
		o.errMsg = ""
	}
	o.bumpLocked()
	o.mu.Unlock()
}

// Submit runs one request to completion: Begin, one call, Finish.
func (o *Orchestrator) Submit(ctx context.Context, req refactor.Request) error {
	if !o.Begin(req) {
		return ErrBusy
	}
	return o.Run(ctx, req)
}

// Run performs the call for a request already started with Begin.
func (o *Orchestrator) Run(ctx context.Context, req refactor.Request) error {
	res, err := o.svc.Refactor(ctx, req)
	if err != nil {
		o.log.Warn("Refactor failed", zap.Error(err))
		o.Finish(refactor.Result{}, err)
		return err
	}
	if o.recorder != nil {
		if rerr := o.recorder.Record(ctx, req, res); rerr != nil {
			o.log.Error("Failed to record result", zap.Error(rerr))
		}
	}
	o.Finish(res, nil)
	return nil
}

// Dismiss clears only the error.
func (o *Orchestrator) Dismiss() {
	o.mu.Lock()
	if o.errMsg == "" {
		o.mu.Unlock()
		return
	}
	o.errMsg = ""
	o.bumpLocked()
	o.mu.Unlock()
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Subscribe delivers the current snapshot and then every later one. Slow
// readers only see the latest state. The channel closes when ctx is done.
func (o *Orchestrator) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = ch
	ch <- o.snapshotLocked()
	o.mu.Unlock()

	go func() {
		<-ctx.Done()
		o.mu.Lock()
		delete(o.subs, id)
		close(ch)
		o.mu.Unlock()
	}()
	return ch
}

// bumpLocked advances the version and fans the new snapshot out while the
// lock is still held, so subscribers never observe versions out of order.
func (o *Orchestrator) bumpLocked() {
	o.version++
	o.publishLocked(o.snapshotLocked())
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{Loading: o.loading, Error: o.errMsg, ResultLanguage: o.resultLang, Version: o.version}
	if o.result != nil {
		r := *o.result
		r.KeyChanges = append([]string(nil), o.result.KeyChanges...)
		s.Result = &r
	}
	if o.request != nil {
		q := *o.request
		s.Request = &q
	}
	return s
}

func (o *Orchestrator) publishLocked(s Snapshot) {
	for _, ch := range o.subs {
		// Replace a stale undelivered snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// Message converts an error to the single user-visible string. Provider
// messages are shown as they are.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if strings.TrimSpace(msg) == "" {
		return FallbackMessage
	}
	return msg
}
