package passenger_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-survivalform/pkg/passenger"
)

func TestDecodeRecord_JSONNumbersKeepText(t *testing.T) {
	data := []byte(`{"Pclass": 1, "Sex": "female", "Age": 29, "Fare": 100.5, "FamilySize": 2, "isAlone": true}`)
	rec, err := passenger.DecodeRecord(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := map[passenger.Field]string{
		passenger.FieldClass:      "1",
		passenger.FieldSex:        "female",
		passenger.FieldAge:        "29",
		passenger.FieldFare:       "100.5",
		passenger.FieldFamilySize: "2",
	}
	if diff := cmp.Diff(want, rec.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if rec.IsAlone == nil || !*rec.IsAlone {
		t.Fatalf("expected explicit isAlone=true")
	}
}

func TestDecodeRecord_YAML(t *testing.T) {
	data := []byte("Pclass: 3\nSex: male\nAge: 41.5\nEmbarked: Q\nTicketPrefix: STON/O2\n")
	rec, err := passenger.DecodeRecord(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[passenger.Field]string{
		passenger.FieldClass:        "3",
		passenger.FieldSex:          "male",
		passenger.FieldAge:          "41.5",
		passenger.FieldEmbarked:     "Q",
		passenger.FieldTicketPrefix: "STON/O2",
	}
	if diff := cmp.Diff(want, rec.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if rec.IsAlone != nil {
		t.Fatalf("isAlone should be absent")
	}
}

func TestDecodeRecord_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":        "   ",
		"unknown key":  `{"Cabin": "B45"}`,
		"nested value": `{"Age": {"years": 3}}`,
		"bad bool":     `{"isAlone": "maybe"}`,
		"garbage":      "::: not a document",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := passenger.DecodeRecord([]byte(data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	_, err := passenger.DecodeRecord([]byte(`{"Cabin": "B45"}`))
	if !errors.Is(err, passenger.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}
