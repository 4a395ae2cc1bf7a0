// Package testsupport holds fixtures and a fake prediction service shared by
// the package tests.
package testsupport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goliatone/go-survivalform/pkg/passenger"
	"github.com/goliatone/go-survivalform/pkg/predict"
)

// ScenarioCBody is a well formed prediction response.
const ScenarioCBody = `{"Logistic Regression Prediction":0,"Random Forest Prediction":1,"Ensemble Model Prediction":1}`

// ScenarioA returns a complete, valid passenger record travelling alone.
func ScenarioA() passenger.Input {
	return passenger.Input{
		Class:        "1",
		Sex:          "female",
		Age:          "29",
		Fare:         "100.5",
		Embarked:     "S",
		FamilySize:   "1",
		IsAlone:      true,
		Title:        "Miss",
		TicketPrefix: "PC",
		CabinLetter:  "C",
	}
}

// ScenarioCResult is the decoded form of ScenarioCBody.
func ScenarioCResult() predict.Result {
	return predict.Result{LogisticRegression: "0", RandomForest: "1", Ensemble: "1"}
}

// Request is one call received by a PredictionServer.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]any
}

// PredictionServer is an httptest server standing in for the prediction
// service. It records every request it receives.
type PredictionServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
}

// NewPredictionServer starts a server answering with status and body. It is
// closed when the test ends.
func NewPredictionServer(t *testing.T, status int, body string) *PredictionServer {
	t.Helper()

	srv := &PredictionServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		decoded := map[string]any{}
		if len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Errorf("prediction server: decode body: %v", err)
			}
		}

		srv.mu.Lock()
		srv.requests = append(srv.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   decoded,
		})
		srv.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// Requests returns the calls received so far.
func (s *PredictionServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CaptureOutput runs render against a buffer and returns what it wrote.
func CaptureOutput(t *testing.T, render func(io.Writer) error) string {
	t.Helper()

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}
