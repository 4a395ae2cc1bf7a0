// Package survivalform is the top-level entry point for callers that want to
// submit a passenger record without assembling the store, controller and
// client themselves.
package survivalform

import (
	"context"
	"errors"
	"io/fs"

	"github.com/goliatone/go-survivalform/pkg/contract"
	"github.com/goliatone/go-survivalform/pkg/passenger"
	"github.com/goliatone/go-survivalform/pkg/predict"
	"github.com/goliatone/go-survivalform/pkg/render"
	"github.com/goliatone/go-survivalform/pkg/submit"
)

// Input aliases passenger.Input so callers only import the root package.
type Input = passenger.Input

// Errors aliases passenger.Errors.
type Errors = passenger.Errors

// Result aliases predict.Result.
type Result = predict.Result

// LatencyPolicy aliases submit.LatencyPolicy.
type LatencyPolicy = submit.LatencyPolicy

// Form is one passenger form bound to a prediction service.
type Form struct {
	Store      *passenger.Store
	Controller *submit.Controller
	Client     *predict.Client
}

type settings struct {
	client     []predict.Option
	controller []submit.Option
}

// Option configures NewForm and Predict.
type Option func(*settings)

// WithClientOptions forwards options to the prediction client.
func WithClientOptions(opts ...predict.Option) Option {
	return func(s *settings) {
		s.client = append(s.client, opts...)
	}
}

// WithControllerOptions forwards options to the submission controller.
func WithControllerOptions(opts ...submit.Option) Option {
	return func(s *settings) {
		s.controller = append(s.controller, opts...)
	}
}

// NewForm wires an empty store, a controller and a client for baseURL.
func NewForm(baseURL string, options ...Option) (*Form, error) {
	var cfg settings
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	client, err := predict.New(baseURL, cfg.client...)
	if err != nil {
		return nil, err
	}
	store := passenger.NewStore()
	return &Form{
		Store:      store,
		Controller: submit.New(store, client, cfg.controller...),
		Client:     client,
	}, nil
}

// Predict loads in into a fresh form and submits it once. Invalid records
// return *submit.ValidationError without contacting the service.
func Predict(ctx context.Context, baseURL string, in Input, options ...Option) (Result, error) {
	form, err := NewForm(baseURL, options...)
	if err != nil {
		return Result{}, err
	}
	for _, field := range passenger.InputFields {
		value, _ := in.Value(field)
		if err := form.Store.SetField(field, value); err != nil {
			return Result{}, err
		}
	}
	if !form.Store.AloneLocked() {
		if err := form.Store.SetAlone(in.IsAlone); err != nil && !errors.Is(err, passenger.ErrAloneLocked) {
			return Result{}, err
		}
	}
	if errs := Validate(form.Store.Snapshot()); len(errs) > 0 {
		return Result{}, &submit.ValidationError{Errors: errs}
	}

	outcome, err := form.Controller.Submit(ctx)
	if err != nil {
		return Result{}, err
	}
	return outcome.Result, nil
}

// Validate runs the field checks and the option membership check on in.
func Validate(in Input) Errors {
	errs := passenger.Validate(in)
	for field, msg := range passenger.CheckMembership(in) {
		if !errs.Has(field) {
			errs[field] = msg
		}
	}
	return errs
}

// Contract returns the embedded OpenAPI document for the prediction service.
func Contract() []byte {
	return contract.Document()
}

// EmbeddedTemplates exposes the built-in report templates so callers can
// reuse or extend them.
func EmbeddedTemplates() fs.FS {
	return render.Templates()
}
