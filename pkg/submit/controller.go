// Package submit coordinates one submission of the passenger form: validate
// the store snapshot, call the prediction service, hold the result back until
// the floor delay has passed, then publish it.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-survivalform/pkg/passenger"
	"github.com/goliatone/go-survivalform/pkg/predict"
)

// ErrInFlight is returned when Submit is called while another submission is
// still running. The call has no effect.
var ErrInFlight = errors.New("submit: submission already in flight")

// FailureMessage is the text surfaces show after a failed prediction.
const FailureMessage = "prediction failed, please retry"

// Phase is the controller's position in the submission cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseInFlight
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseInFlight:
		return "in-flight"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ValidationError is returned when the snapshot failed validation. No request
// was sent.
type ValidationError struct {
	Errors passenger.Errors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Errors))
	for _, field := range e.Errors.Fields() {
		names = append(names, string(field))
	}
	return fmt.Sprintf("submit: %d invalid field(s): %s", len(names), strings.Join(names, ", "))
}

// LatencyPolicy holds a result back so fast responses are not flashed at the
// user. A response quicker than Threshold is published no earlier than Floor
// after the request started; slower responses are published at once.
type LatencyPolicy struct {
	Threshold time.Duration
	Floor     time.Duration
}

// DefaultLatencyPolicy returns the 2s threshold / 1s floor policy.
func DefaultLatencyPolicy() LatencyPolicy {
	return LatencyPolicy{Threshold: 2 * time.Second, Floor: time.Second}
}

// Wait returns how long to hold a result that took elapsed to arrive. It is
// never negative.
func (p LatencyPolicy) Wait(elapsed time.Duration) time.Duration {
	if elapsed >= p.Threshold {
		return 0
	}
	if wait := p.Floor - elapsed; wait > 0 {
		return wait
	}
	return 0
}

// View is a consistent snapshot of the controller state.
type View struct {
	Phase     Phase
	Result    predict.Result
	Submitted bool
	// Err is the last submission failure. It is cleared by the next success.
	Err error
	// FormErrors carries messages the service returned that are not tied to
	// a passenger field.
	FormErrors []string
	Errors     passenger.Errors
}

// Failed reports whether the last submission ended in failure.
func (v View) Failed() bool { return v.Err != nil }

// Outcome describes one completed submission.
type Outcome struct {
	Result  predict.Result
	Elapsed time.Duration
	Waited  time.Duration
}

// Option customises a Controller.
type Option func(*Controller)

// WithLatencyPolicy overrides the floor delay policy.
func WithLatencyPolicy(policy LatencyPolicy) Option {
	return func(c *Controller) {
		c.policy = policy
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSleep replaces the floor delay wait. The function must return early
// with ctx.Err() when the context ends.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// Controller runs submissions against one store. It is safe for concurrent
// use; overlapping Submit calls are rejected rather than queued.
type Controller struct {
	store     *passenger.Store
	predictor predict.Predictor
	policy    LatencyPolicy
	logger    *zap.Logger
	now       func() time.Time
	sleep     func(context.Context, time.Duration) error

	busy atomic.Bool

	mu         sync.RWMutex
	phase      Phase
	result     predict.Result
	submitted  bool
	err        error
	formErrors []string
	observers  []func(View)
}

// New constructs a Controller.
func New(store *passenger.Store, predictor predict.Predictor, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		predictor: predictor,
		policy:    DefaultLatencyPolicy(),
		logger:    zap.NewNop(),
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// OnChange registers fn to be called with the new view after every state
// change. Observers run on the submitting goroutine.
func (c *Controller) OnChange(fn func(View)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// View returns the current state.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewLocked()
}

// Submit validates the store snapshot and, when it is valid, requests a
// prediction. Validation failures return *ValidationError; service failures
// are returned as-is and also recorded in View().Err with the prior result
// left in place.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Debug("submission ignored", zap.String("phase", c.View().Phase.String()))
		return Outcome{}, ErrInFlight
	}
	defer c.busy.Store(false)

	c.transition(PhaseValidating, nil)
	input := c.store.Snapshot()
	if errs := passenger.Validate(input); len(errs) > 0 {
		c.store.PublishErrors(errs)
		c.transition(PhaseIdle, nil)
		c.logger.Debug("submission blocked by validation", zap.Int("fields", len(errs)))
		return Outcome{}, &ValidationError{Errors: errs}
	}
	c.store.ClearErrors()

	c.transition(PhaseInFlight, nil)
	started := c.now()
	result, err := c.predictor.Predict(ctx, input)
	elapsed := c.now().Sub(started)
	if err != nil {
		c.fail(err, elapsed)
		return Outcome{}, err
	}

	wait := c.policy.Wait(elapsed)
	if wait > 0 {
		if err := c.sleep(ctx, wait); err != nil {
			c.fail(err, elapsed)
			return Outcome{}, err
		}
	}

	c.transition(PhaseIdle, func() {
		c.result = result
		c.submitted = true
		c.err = nil
		c.formErrors = nil
	})
	c.logger.Debug("prediction published",
		zap.Duration("elapsed", elapsed),
		zap.Duration("waited", wait),
	)
	return Outcome{Result: result, Elapsed: elapsed, Waited: wait}, nil
}

func (c *Controller) fail(err error, elapsed time.Duration) {
	fields := []zap.Field{zap.Error(err), zap.Duration("elapsed", elapsed)}

	var formErrors []string
	var statusErr *predict.StatusError
	if errors.As(err, &statusErr) {
		fields = append(fields, zap.Int("status", statusErr.StatusCode))
		if len(statusErr.Fields) > 0 {
			c.store.PublishErrors(statusErr.Fields)
		}
		formErrors = statusErr.Form
	}
	c.logger.Error("prediction failed", fields...)

	c.transition(PhaseIdle, func() {
		c.err = err
		c.formErrors = formErrors
	})
}

func (c *Controller) transition(phase Phase, mutate func()) {
	c.mu.Lock()
	from := c.phase
	c.phase = phase
	if mutate != nil {
		mutate()
	}
	view := c.viewLocked()
	observers := make([]func(View), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	c.logger.Debug("phase transition",
		zap.String("from", from.String()),
		zap.String("to", phase.String()),
	)
	for _, fn := range observers {
		fn(view)
	}
}

func (c *Controller) viewLocked() View {
	return View{
		Phase:      c.phase,
		Result:     c.result,
		Submitted:  c.submitted,
		Err:        c.err,
		FormErrors: append([]string(nil), c.formErrors...),
		Errors:     c.store.Errors(),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
