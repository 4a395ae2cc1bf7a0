package passenger

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAloneLocked is returned by SetAlone when the requested value would
// contradict the family size: the flag cannot be edited at all from two
// upwards, and cannot be cleared for a family of one.
var ErrAloneLocked = errors.New("passenger: isAlone is derived from family size")

// Store holds the session's record and its published field errors. Every
// mutation happens under one lock so readers never observe a family size
// whose derived isAlone has not been applied yet.
type Store struct {
	mu     sync.RWMutex
	input  Input
	errors Errors
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{errors: Errors{}}
}

// SetField replaces one scalar field. Setting FamilySize recomputes isAlone
// in the same update: 1 forces true, anything above 1 forces false, other
// values leave it as it was. The mutated field's published error is cleared;
// other errors are kept until the next validation.
func (s *Store) SetField(field Field, value string) error {
	if field == FieldIsAlone {
		alone, err := boolValue(value)
		if err != nil {
			return fmt.Errorf("passenger: isAlone: %w", err)
		}
		return s.SetAlone(alone)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.input
	if !next.setScalar(field, value) {
		return ErrUnknownField
	}
	if field == FieldFamilySize {
		deriveAlone(&next)
	}
	s.input = next
	delete(s.errors, field)
	return nil
}

// SetAlone edits the isAlone flag directly.
func (s *Store) SetAlone(alone bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if aloneLocked(s.input) {
		return ErrAloneLocked
	}
	if size, ok := ParseFamilySize(s.input.FamilySize); ok && size == 1 && !alone {
		return ErrAloneLocked
	}
	s.input.IsAlone = alone
	delete(s.errors, FieldIsAlone)
	return nil
}

// Apply loads a decoded record field by field in form order, so the
// isAlone derivation runs exactly as it would for interactive edits. An
// explicit isAlone in the record is honoured when the flag is editable.
func (s *Store) Apply(rec Record) error {
	for _, field := range InputFields {
		value, ok := rec.Values[field]
		if !ok {
			continue
		}
		if err := s.SetField(field, value); err != nil {
			return err
		}
	}
	if rec.IsAlone != nil {
		if err := s.SetAlone(*rec.IsAlone); err != nil && !errors.Is(err, ErrAloneLocked) {
			return err
		}
	}
	return nil
}

// AloneLocked reports whether the isAlone control is currently disabled.
func (s *Store) AloneLocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return aloneLocked(s.input)
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() Input {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.input
}

// Errors returns a copy of the published field errors.
func (s *Store) Errors() Errors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errors.Clone()
}

// ErrorFor returns the published message for one field.
func (s *Store) ErrorFor(field Field) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.errors[field]
	return msg, ok
}

// PublishErrors replaces the published errors with errs.
func (s *Store) PublishErrors(errs Errors) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = errs.Clone()
}

// ClearErrors drops every published error.
func (s *Store) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = Errors{}
}

// Reset returns the store to an empty record with no errors.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = Input{}
	s.errors = Errors{}
}

func deriveAlone(in *Input) {
	size, ok := ParseFamilySize(in.FamilySize)
	if !ok {
		return
	}
	switch {
	case size == 1:
		in.IsAlone = true
	case size > 1:
		in.IsAlone = false
	}
}

func aloneLocked(in Input) bool {
	size, ok := ParseFamilySize(in.FamilySize)
	return ok && size >= 2
}
