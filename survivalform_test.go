package survivalform_test

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-survivalform"
	"github.com/goliatone/go-survivalform/pkg/passenger"
	"github.com/goliatone/go-survivalform/pkg/submit"
	"github.com/goliatone/go-survivalform/pkg/testsupport"
)

func TestPredict_SubmitsValidRecord(t *testing.T) {
	server := testsupport.NewPredictionServer(t, http.StatusOK, testsupport.ScenarioCBody)

	result, err := survivalform.Predict(context.Background(), server.URL, testsupport.ScenarioA(),
		survivalform.WithControllerOptions(submit.WithLatencyPolicy(survivalform.LatencyPolicy{})))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if diff := cmp.Diff(testsupport.ScenarioCResult(), result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if got := len(server.Requests()); got != 1 {
		t.Fatalf("expected one request, got %d", got)
	}
}

func TestPredict_InvalidRecordIsNotSent(t *testing.T) {
	server := testsupport.NewPredictionServer(t, http.StatusOK, testsupport.ScenarioCBody)
	in := testsupport.ScenarioA()
	in.Embarked = "X"
	in.Age = ""

	_, err := survivalform.Predict(context.Background(), server.URL, in)

	var validationErr *submit.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	want := survivalform.Errors{
		passenger.FieldAge:      passenger.MsgAgeRequired,
		passenger.FieldEmbarked: passenger.MsgNotAnOption,
	}
	if diff := cmp.Diff(want, validationErr.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if len(server.Requests()) != 0 {
		t.Fatalf("no request expected")
	}
}

func TestNewForm_RejectsBadURL(t *testing.T) {
	if _, err := survivalform.NewForm("ftp://example.com"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	for _, name := range []string{"report.txt.tpl", "report.html.tpl"} {
		if _, err := fs.Stat(survivalform.EmbeddedTemplates(), name); err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
	}
	if len(survivalform.Contract()) == 0 {
		t.Fatalf("contract document is empty")
	}
}

func TestPredict_PaddedValuesAreSentTrimmed(t *testing.T) {
	server := testsupport.NewPredictionServer(t, http.StatusOK, testsupport.ScenarioCBody)
	in := testsupport.ScenarioA()
	in.Class = " 1"
	in.Embarked = "S "
	in.IsAlone = false

	_, err := survivalform.Predict(context.Background(), server.URL, in,
		survivalform.WithControllerOptions(submit.WithLatencyPolicy(survivalform.LatencyPolicy{})))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	requests := server.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	body := requests[0].Body
	if body["Pclass"] != "1" || body["Embarked"] != "S" || body["isAlone"] != true {
		t.Fatalf("unexpected body %v", body)
	}
}
