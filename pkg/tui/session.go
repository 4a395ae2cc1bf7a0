// Package tui runs the passenger form in a terminal. A Session prompts for
// every field of the contract's form model, validates each answer as it is
// entered, submits through the controller and prints the report.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-survivalform/pkg/model"
	"github.com/goliatone/go-survivalform/pkg/passenger"
	"github.com/goliatone/go-survivalform/pkg/render"
	"github.com/goliatone/go-survivalform/pkg/submit"
)

const selectPageSize = 10

// Session is one interactive form session.
type Session struct {
	form       model.FormModel
	store      *passenger.Store
	controller *submit.Controller
	driver     PromptDriver
	renderer   render.Renderer
	logger     *zap.Logger
	skipFilled bool
}

// NewSession constructs a session bound to store and controller. The survey
// driver and text renderer are used unless overridden.
func NewSession(form model.FormModel, store *passenger.Store, controller *submit.Controller, options ...Option) (*Session, error) {
	if store == nil || controller == nil {
		return nil, errors.New("tui: store and controller are required")
	}
	s := &Session{
		form:       form,
		store:      store,
		controller: controller,
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	if s.renderer == nil {
		text, err := render.NewText()
		if err != nil {
			return nil, err
		}
		s.renderer = text
	}
	return s, nil
}

// Run prompts for the record, submits it and prints the report. A failed
// submission may be retried from the prompt; declining returns the failure.
func (s *Session) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, field := range s.form.Fields {
		if s.skipFilled && s.filled(field) {
			continue
		}
		if err := s.promptField(ctx, field); err != nil {
			return err
		}
	}

	for {
		_, err := s.controller.Submit(ctx)
		if err == nil {
			return s.printReport(ctx)
		}
		if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) {
			return err
		}

		var validationErr *submit.ValidationError
		if errors.As(err, &validationErr) {
			if err := s.repromptInvalid(ctx); err != nil {
				return err
			}
			continue
		}

		s.logger.Debug("submission failed", zap.Error(err))
		if err := s.reportFailure(ctx); err != nil {
			return err
		}
		if err := s.repromptInvalid(ctx); err != nil {
			return err
		}
		retry, promptErr := s.driver.Confirm(ctx, ConfirmConfig{Message: "Retry prediction?", Default: true})
		if promptErr != nil {
			return promptErr
		}
		if !retry {
			return err
		}
	}
}

func (s *Session) promptField(ctx context.Context, field model.Field) error {
	name := passenger.Field(field.Name)
	if name == passenger.FieldIsAlone {
		return s.promptAlone(ctx, field)
	}

	for {
		if msg, ok := s.store.ErrorFor(name); ok {
			if err := s.driver.Info(ctx, fmt.Sprintf("Invalid %s: %s", field.Label, msg)); err != nil {
				return err
			}
		}

		value, err := s.ask(ctx, field)
		if err != nil {
			return err
		}
		if err := s.store.SetField(name, value); err != nil {
			return fmt.Errorf("tui: set %s: %w", field.Name, err)
		}

		if msg, invalid := passenger.Validate(s.store.Snapshot())[name]; invalid {
			s.store.PublishErrors(merge(s.store.Errors(), name, msg))
			continue
		}
		return nil
	}
}

func (s *Session) ask(ctx context.Context, field model.Field) (string, error) {
	current, _ := s.store.Snapshot().Value(passenger.Field(field.Name))

	if len(field.Options) > 0 {
		labels := make([]string, len(field.Options))
		selected := -1
		for i, opt := range field.Options {
			labels[i] = opt.Label
			if opt.Value == current {
				selected = i
			}
		}
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      field.Label,
			Options:      labels,
			DefaultIndex: selected,
			Help:         field.Description,
			PageSize:     selectPageSize,
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(field.Options) {
			return "", fmt.Errorf("%w: %s index %d", ErrInvalidSelection, field.Name, idx)
		}
		return field.Options[idx].Value, nil
	}

	help := field.Description
	if help == "" {
		help = field.Placeholder
	}
	answer, err := s.driver.Input(ctx, InputConfig{
		Message: field.Label,
		Default: current,
		Help:    help,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (s *Session) promptAlone(ctx context.Context, field model.Field) error {
	snapshot := s.store.Snapshot()
	size, ok := passenger.ParseFamilySize(snapshot.FamilySize)
	switch {
	case ok && size == 1:
		return s.driver.Info(ctx, fmt.Sprintf("%s: Yes (Auto-set)", field.Label))
	case s.store.AloneLocked():
		return s.driver.Info(ctx, fmt.Sprintf("%s: No (Auto-set)", field.Label))
	}

	alone, err := s.driver.Confirm(ctx, ConfirmConfig{
		Message: field.Label,
		Default: snapshot.IsAlone,
		Help:    field.Description,
	})
	if err != nil {
		return err
	}
	if err := s.store.SetAlone(alone); err != nil && !errors.Is(err, passenger.ErrAloneLocked) {
		return err
	}
	return nil
}

func (s *Session) repromptInvalid(ctx context.Context) error {
	errs := s.store.Errors()
	if len(errs) == 0 {
		return nil
	}
	for _, field := range s.form.Fields {
		if errs.Has(passenger.Field(field.Name)) {
			if err := s.promptField(ctx, field); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) reportFailure(ctx context.Context) error {
	view := s.controller.View()
	if err := s.driver.Info(ctx, submit.FailureMessage); err != nil {
		return err
	}
	for _, msg := range view.FormErrors {
		if err := s.driver.Info(ctx, "  "+msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) printReport(ctx context.Context) error {
	view := s.controller.View()
	if !view.Submitted {
		return nil
	}
	out, err := s.renderer.Render(ctx, render.NewReport(s.form, s.store.Snapshot(), view))
	if err != nil {
		return err
	}
	return s.driver.Info(ctx, strings.TrimRight(string(out), "\n"))
}

func (s *Session) filled(field model.Field) bool {
	name := passenger.Field(field.Name)
	if name == passenger.FieldIsAlone {
		return s.store.AloneLocked()
	}
	snapshot := s.store.Snapshot()
	value, _ := snapshot.Value(name)
	if value == "" {
		return false
	}
	if passenger.Validate(snapshot).Has(name) {
		return false
	}
	return !passenger.CheckMembership(snapshot).Has(name)
}

func merge(errs passenger.Errors, field passenger.Field, msg string) passenger.Errors {
	out := errs.Clone()
	out[field] = msg
	return out
}
