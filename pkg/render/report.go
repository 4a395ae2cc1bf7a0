package render

import (
	"encoding/json"

	"github.com/goliatone/go-survivalform/pkg/model"
	"github.com/goliatone/go-survivalform/pkg/passenger"
	"github.com/goliatone/go-survivalform/pkg/predict"
	"github.com/goliatone/go-survivalform/pkg/submit"
)

// Display names for the three predictions, in presentation order.
const (
	LabelLogisticRegression = "Logistic Regression"
	LabelRandomForest       = "Random Forest"
	LabelEnsemble           = "XGBoost"
)

// Row is one passenger attribute as shown to the user.
type Row struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
	// Display is the option label for select fields, the value otherwise.
	Display string `json:"display"`
	Error   string `json:"error,omitempty"`
}

// Prediction is one model output. Value is the service's encoding, untouched.
type Prediction struct {
	Key   string      `json:"key"`
	Label string      `json:"label"`
	Value json.Number `json:"value"`
}

// Report is the renderer input: the passenger summary plus the submission
// state.
type Report struct {
	Title       string       `json:"title"`
	Rows        []Row        `json:"passenger"`
	Submitted   bool         `json:"submitted"`
	Predictions []Prediction `json:"predictions,omitempty"`
	Failure     string       `json:"failure,omitempty"`
	FormErrors  []string     `json:"formErrors,omitempty"`
}

// NewReport assembles a Report from the form model, the record and the
// controller view. Rows follow the form's field order.
func NewReport(form model.FormModel, in passenger.Input, view submit.View) Report {
	report := Report{
		Title:      "Titanic Survival Prediction",
		Submitted:  view.Submitted,
		FormErrors: append([]string(nil), view.FormErrors...),
	}

	for _, field := range form.Fields {
		name := passenger.Field(field.Name)
		value, ok := in.Value(name)
		if !ok {
			continue
		}
		display := passenger.OptionLabel(name, value)
		if name == passenger.FieldIsAlone {
			display = yesNo(in.IsAlone)
		}
		row := Row{Field: field.Name, Label: field.Label, Value: value, Display: display}
		if msg, exists := view.Errors[name]; exists {
			row.Error = msg
		}
		report.Rows = append(report.Rows, row)
	}

	if view.Submitted {
		report.Predictions = Predictions(view.Result)
	}
	if view.Failed() {
		report.Failure = submit.FailureMessage
	}
	return report
}

// Predictions lists the three model outputs in presentation order.
func Predictions(result predict.Result) []Prediction {
	return []Prediction{
		{Key: "Logistic Regression Prediction", Label: LabelLogisticRegression, Value: result.LogisticRegression},
		{Key: "Random Forest Prediction", Label: LabelRandomForest, Value: result.RandomForest},
		{Key: "Ensemble Model Prediction", Label: LabelEnsemble, Value: result.Ensemble},
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// context converts the report into the plain map templates consume. Values
// stay strings so numbers render exactly as received.
func (r Report) context() map[string]any {
	rows := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, map[string]any{
			"field":   row.Field,
			"label":   row.Label,
			"value":   row.Value,
			"display": row.Display,
			"error":   row.Error,
		})
	}
	predictions := make([]map[string]any, 0, len(r.Predictions))
	for _, p := range r.Predictions {
		predictions = append(predictions, map[string]any{
			"key":   p.Key,
			"label": p.Label,
			"value": p.Value.String(),
		})
	}
	return map[string]any{
		"title":       r.Title,
		"rows":        rows,
		"submitted":   r.Submitted,
		"predictions": predictions,
		"failure":     r.Failure,
		"form_errors": r.FormErrors,
	}
}
