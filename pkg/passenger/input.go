package passenger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownField is returned when a field name is not part of the record.
var ErrUnknownField = errors.New("passenger: unknown field")

// Input is the passenger record. Scalar attributes keep the raw text the user
// typed or selected; an empty string means unset.
type Input struct {
	Class        string `json:"Pclass" yaml:"Pclass"`
	Sex          string `json:"Sex" yaml:"Sex"`
	Age          string `json:"Age" yaml:"Age"`
	Fare         string `json:"Fare" yaml:"Fare"`
	Embarked     string `json:"Embarked" yaml:"Embarked"`
	FamilySize   string `json:"FamilySize" yaml:"FamilySize"`
	IsAlone      bool   `json:"isAlone" yaml:"isAlone"`
	Title        string `json:"Title" yaml:"Title"`
	TicketPrefix string `json:"TicketPrefix" yaml:"TicketPrefix"`
	CabinLetter  string `json:"CabinLetter" yaml:"CabinLetter"`
}

// Value returns the raw value of a scalar field. isAlone is reported as
// "true"/"false".
func (in Input) Value(field Field) (string, bool) {
	switch field {
	case FieldClass:
		return in.Class, true
	case FieldSex:
		return in.Sex, true
	case FieldAge:
		return in.Age, true
	case FieldFare:
		return in.Fare, true
	case FieldEmbarked:
		return in.Embarked, true
	case FieldFamilySize:
		return in.FamilySize, true
	case FieldIsAlone:
		if in.IsAlone {
			return "true", true
		}
		return "false", true
	case FieldTitle:
		return in.Title, true
	case FieldTicketPrefix:
		return in.TicketPrefix, true
	case FieldCabinLetter:
		return in.CabinLetter, true
	default:
		return "", false
	}
}

func (in *Input) setScalar(field Field, value string) bool {
	value = strings.TrimSpace(value)
	switch field {
	case FieldClass:
		in.Class = value
	case FieldSex:
		in.Sex = value
	case FieldAge:
		in.Age = value
	case FieldFare:
		in.Fare = value
	case FieldEmbarked:
		in.Embarked = value
	case FieldFamilySize:
		in.FamilySize = value
	case FieldTitle:
		in.Title = value
	case FieldTicketPrefix:
		in.TicketPrefix = value
	case FieldCabinLetter:
		in.CabinLetter = value
	default:
		return false
	}
	return true
}

// Record is a decoded record file: the scalar values present in the document
// plus an explicit isAlone when the document carried one.
type Record struct {
	Values  map[Field]string
	IsAlone *bool
}

// DecodeRecord parses a JSON or YAML passenger document. Numbers are kept
// in their textual form so "29" and 29 decode identically. Keys must be wire
// keys; unknown keys are rejected.
func DecodeRecord(data []byte) (Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Record{}, errors.New("passenger: record is empty")
	}

	raw := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		raw = map[string]any{}
		if yerr := yaml.Unmarshal(data, &raw); yerr != nil {
			return Record{}, errors.New("passenger: record is neither valid JSON nor YAML")
		}
	}

	rec := Record{Values: make(map[Field]string, len(raw))}
	for key, value := range raw {
		field, ok := Known(key)
		if !ok {
			return Record{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		if field == FieldIsAlone {
			b, err := boolValue(value)
			if err != nil {
				return Record{}, fmt.Errorf("passenger: isAlone: %w", err)
			}
			rec.IsAlone = &b
			continue
		}
		text, err := scalarText(value)
		if err != nil {
			return Record{}, fmt.Errorf("passenger: %s: %w", key, err)
		}
		rec.Values[field] = text
	}
	return rec, nil
}

func scalarText(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case int, int64, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("expected scalar, got %T", value)
	}
}

func boolValue(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0", "":
			return false, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %v", value)
}
