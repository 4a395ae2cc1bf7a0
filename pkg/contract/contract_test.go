package contract_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-survivalform/pkg/contract"
	"github.com/goliatone/go-survivalform/pkg/model"
	"github.com/goliatone/go-survivalform/pkg/passenger"
)

func mustDefault(t *testing.T) *contract.Contract {
	t.Helper()
	c, err := contract.Default()
	if err != nil {
		t.Fatalf("load default contract: %v", err)
	}
	return c
}

func TestDefault_FormFollowsDeclaredOrder(t *testing.T) {
	form := mustDefault(t).Form()

	var names []string
	for _, field := range form.Fields {
		names = append(names, field.Name)
	}
	want := []string{
		"Pclass", "Sex", "Age", "Fare", "Embarked", "FamilySize",
		"isAlone", "Title", "TicketPrefix", "CabinLetter",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
	if form.Method != "POST" || form.Endpoint != contract.PredictionPath {
		t.Fatalf("unexpected endpoint %s %s", form.Method, form.Endpoint)
	}

	age, _ := form.Field("Age")
	if age.Type != model.FieldTypeNumber || age.Placeholder != "Enter Age" {
		t.Fatalf("unexpected age field %+v", age)
	}
	size, _ := form.Field("FamilySize")
	if size.Type != model.FieldTypeInteger {
		t.Fatalf("family size should be an integer input, got %s", size.Type)
	}
	alone, _ := form.Field("isAlone")
	if alone.Type != model.FieldTypeBoolean {
		t.Fatalf("isAlone should be boolean, got %s", alone.Type)
	}
}

// The Go enumerations and the contract must not drift apart.
func TestDefault_EnumerationsMatchPassengerPackage(t *testing.T) {
	c := mustDefault(t)
	form := c.Form()

	for _, field := range passenger.InputFields {
		opts := passenger.Options(field)
		if opts == nil {
			if got := c.Enum(string(field)); got != nil {
				t.Fatalf("%s: contract declares options %v for a free-form field", field, got)
			}
			continue
		}
		described, ok := form.Field(string(field))
		if !ok {
			t.Fatalf("%s missing from contract", field)
		}
		var want []model.Option
		for _, opt := range opts {
			want = append(want, model.Option{Value: opt.Value, Label: opt.Label})
		}
		if diff := cmp.Diff(want, described.Options); diff != "" {
			t.Fatalf("%s options drifted (-passenger +contract):\n%s", field, diff)
		}
	}
}

func TestValidateRequest(t *testing.T) {
	c := mustDefault(t)
	valid := passenger.Input{
		Class: "1", Sex: "female", Age: "29", Fare: "100.5", Embarked: "S",
		FamilySize: "1", IsAlone: true, Title: "Miss", TicketPrefix: "PC", CabinLetter: "C",
	}
	body, err := json.Marshal(valid)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := c.ValidateRequest(body); err != nil {
		t.Fatalf("valid body rejected: %v", err)
	}

	invalid := valid
	invalid.Embarked = "X"
	body, _ = json.Marshal(invalid)
	err = c.ValidateRequest(body)
	if !errors.Is(err, contract.ErrRequestRejected) {
		t.Fatalf("expected ErrRequestRejected, got %v", err)
	}
	var violation *contract.Violation
	if !errors.As(err, &violation) || violation.Field != "Embarked" {
		t.Fatalf("expected violation on Embarked, got %v", err)
	}
}

func TestValidateResponse(t *testing.T) {
	c := mustDefault(t)

	ok := []byte(`{"Logistic Regression Prediction":0,"Random Forest Prediction":1,"Ensemble Model Prediction":1}`)
	if err := c.ValidateResponse(ok); err != nil {
		t.Fatalf("valid response rejected: %v", err)
	}

	cases := map[string]struct {
		body  string
		field string
	}{
		"missing key":  {`{"Logistic Regression Prediction":0,"Random Forest Prediction":1}`, "Ensemble Model Prediction"},
		"wrong type":   {`{"Logistic Regression Prediction":"yes","Random Forest Prediction":1,"Ensemble Model Prediction":1}`, "Logistic Regression Prediction"},
		"not json":     {`<html>`, ""},
		"not a object": {`[1,2,3]`, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := c.ValidateResponse([]byte(tc.body))
			if !errors.Is(err, contract.ErrResponseRejected) {
				t.Fatalf("expected ErrResponseRejected, got %v", err)
			}
			var violation *contract.Violation
			if !errors.As(err, &violation) {
				t.Fatalf("expected *Violation, got %T", err)
			}
			if violation.Field != tc.field {
				t.Fatalf("violation field = %q, want %q", violation.Field, tc.field)
			}
		})
	}
}

func TestLoad_RejectsIncompleteDocuments(t *testing.T) {
	cases := map[string]string{
		"empty": "",
		"no prediction path": `openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /Other:
    get:
      responses:
        '200': {description: ok}
`,
		"no response schema": `openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /Prediction:
    post:
      operationId: predict
      requestBody:
        content:
          application/json:
            schema: {type: object}
      responses:
        '200': {description: ok}
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := contract.Load(context.Background(), []byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDocument_IsEmbeddedCopy(t *testing.T) {
	doc := contract.Document()
	if len(doc) == 0 {
		t.Fatalf("embedded document is empty")
	}
	doc[0] = 'X'
	if contract.Document()[0] == 'X' {
		t.Fatalf("Document must return a copy")
	}
}
