package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-survivalform/internal/config"
	"github.com/goliatone/go-survivalform/pkg/contract"
	"github.com/goliatone/go-survivalform/pkg/passenger"
	"github.com/goliatone/go-survivalform/pkg/predict"
	"github.com/goliatone/go-survivalform/pkg/render"
	"github.com/goliatone/go-survivalform/pkg/submit"
	"github.com/goliatone/go-survivalform/pkg/testsupport"
)

const scenarioARecord = `{"Pclass":1,"Sex":"female","Age":29,"Fare":100.5,"Embarked":"S","FamilySize":1,"Title":"Miss","TicketPrefix":"PC","CabinLetter":"C"}`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SURVIVALFORM_BACKEND_URL", config.LegacyBaseURLVar, "SURVIVALFORM_FLOOR_DELAY",
		"SURVIVALFORM_DELAY_THRESHOLD", "SURVIVALFORM_REQUEST_TIMEOUT",
		"SURVIVALFORM_OUTPUT", "SURVIVALFORM_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// execute runs the CLI and returns stdout, stderr and the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	clearEnv(t)

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(bytes.NewReader(nil))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// run executes a command that is expected to succeed and returns its stdout.
func run(t *testing.T, args ...string) string {
	t.Helper()
	clearEnv(t)

	return testsupport.CaptureOutput(t, func(w io.Writer) error {
		cmd := newRootCmd()
		cmd.SetArgs(args)
		cmd.SetOut(w)
		cmd.SetErr(io.Discard)
		return cmd.ExecuteContext(context.Background())
	})
}

func writeRecord(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "passenger.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	require.Equal(t, "survivalform dev\n", run(t, "version"))
}

func TestContractCommand(t *testing.T) {
	require.Equal(t, string(contract.Document()), run(t, "contract"))

	out := run(t, "contract", "--form")
	require.Contains(t, out, `"name": "Pclass"`)
	require.Contains(t, out, `"label": "Fare (£)"`)
}

func TestValidateCommand_ValidRecord(t *testing.T) {
	out := run(t, "validate", writeRecord(t, scenarioARecord))

	require.Contains(t, out, "Titanic Survival Prediction")
	require.Contains(t, out, "Southampton (S)")
	require.NotContains(t, out, "invalid:")
}

func TestValidateCommand_InvalidRecord(t *testing.T) {
	path := writeRecord(t, `{"Pclass":"0","Sex":"female","Age":29,"Fare":-1,"Embarked":"X","FamilySize":0,"Title":"Miss","TicketPrefix":"PC","CabinLetter":"C"}`)

	out, _, err := execute(t, "validate", path)

	require.ErrorIs(t, err, errInvalidRecord)
	require.Contains(t, out, "(invalid: "+passenger.MsgClassZero+")")
	require.Contains(t, out, "(invalid: "+passenger.MsgFareNegative+")")
	require.Contains(t, out, "(invalid: "+passenger.MsgNotAnOption+")")
	require.Contains(t, out, "(invalid: "+passenger.MsgFamilySizeMin+")")
}

func TestValidateCommand_RejectsUnknownKeys(t *testing.T) {
	_, _, err := execute(t, "validate", writeRecord(t, `{"Cabin":"C85"}`))

	require.ErrorIs(t, err, passenger.ErrUnknownField)
}

func TestValidateCommand_ReadsStdin(t *testing.T) {
	clearEnv(t)
	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"validate", "-", "--output", "json"})
	cmd.SetIn(bytes.NewBufferString("Pclass: 2\nSex: male\n"))
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)

	err := cmd.ExecuteContext(context.Background())

	require.ErrorIs(t, err, errInvalidRecord)
	var report render.Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	errorsByField := map[string]string{}
	for _, row := range report.Rows {
		if row.Error != "" {
			errorsByField[row.Field] = row.Error
		}
	}
	require.Equal(t, passenger.MsgAgeRequired, errorsByField["Age"])
	require.NotContains(t, errorsByField, "Pclass")
}

func TestPredictCommand_RecordFile(t *testing.T) {
	server := testsupport.NewPredictionServer(t, http.StatusOK, testsupport.ScenarioCBody)

	out := run(t, "predict", "--record", writeRecord(t, scenarioARecord),
		"--backend-url", server.URL, "--floor-delay", "0")

	require.Contains(t, out, "Prediction Complete!")
	require.Contains(t, out, "Logistic Regression   0")
	require.Contains(t, out, "XGBoost               1")

	requests := server.Requests()
	require.Len(t, requests, 1)
	require.Equal(t, contract.PredictionPath, requests[0].Path)
	require.Equal(t, true, requests[0].Body["isAlone"])
	require.Equal(t, "29", requests[0].Body["Age"])
}

func TestPredictCommand_FlagsOnlyJSON(t *testing.T) {
	server := testsupport.NewPredictionServer(t, http.StatusOK, testsupport.ScenarioCBody)

	out := run(t, "predict",
		"--class", "3", "--sex", "male", "--age", "22", "--fare", "7.25",
		"--embarked", "S", "--family-size", "2", "--title", "Mr",
		"--ticket-prefix", "A/5", "--cabin", "T",
		"--backend-url", server.URL, "--floor-delay", "0", "--output", "json")

	var report render.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.True(t, report.Submitted)
	require.Len(t, report.Predictions, 3)
	require.Equal(t, json.Number("1"), report.Predictions[2].Value)

	requests := server.Requests()
	require.Len(t, requests, 1)
	require.Equal(t, false, requests[0].Body["isAlone"])
	require.Equal(t, "A/5", requests[0].Body["TicketPrefix"])
}

func TestPredictCommand_FlagsOverrideRecord(t *testing.T) {
	server := testsupport.NewPredictionServer(t, http.StatusOK, testsupport.ScenarioCBody)

	run(t, "predict", "--record", writeRecord(t, scenarioARecord), "--age", "40",
		"--backend-url", server.URL, "--floor-delay", "0")

	requests := server.Requests()
	require.Len(t, requests, 1)
	require.Equal(t, "40", requests[0].Body["Age"])
}

func TestPredictCommand_InvalidRecordIsNotSent(t *testing.T) {
	server := testsupport.NewPredictionServer(t, http.StatusOK, testsupport.ScenarioCBody)

	out, _, err := execute(t, "predict", "--record", writeRecord(t, scenarioARecord),
		"--family-size", "0", "--backend-url", server.URL)

	require.ErrorIs(t, err, errInvalidRecord)
	require.Contains(t, out, passenger.MsgFamilySizeMin)
	require.Empty(t, server.Requests())
}

func TestPredictCommand_ServiceFailure(t *testing.T) {
	server := testsupport.NewPredictionServer(t, http.StatusInternalServerError, `{"detail":"model not loaded"}`)

	out, stderr, err := execute(t, "predict", "--record", writeRecord(t, scenarioARecord),
		"--backend-url", server.URL, "--floor-delay", "0")

	require.ErrorIs(t, err, predict.ErrUnexpectedStatus)
	require.Contains(t, out, submit.FailureMessage)
	require.NotContains(t, out, "Prediction Complete!")
	require.Contains(t, stderr, "prediction failed")
}

func TestPredictCommand_VerboseLogsToStderr(t *testing.T) {
	server := testsupport.NewPredictionServer(t, http.StatusOK, testsupport.ScenarioCBody)

	_, stderr, err := execute(t, "predict", "--record", writeRecord(t, scenarioARecord),
		"--backend-url", server.URL, "--floor-delay", "0", "--verbose")

	require.NoError(t, err)
	require.Contains(t, stderr, "configuration resolved")
	require.Contains(t, stderr, `"command":"predict"`)
}

func TestRootCommand_RejectsInvalidSettings(t *testing.T) {
	_, _, err := execute(t, "validate", writeRecord(t, scenarioARecord), "--output", "pdf")
	require.ErrorContains(t, err, `output "pdf"`)

	_, _, err = execute(t, "predict", "--age", "29", "--backend-url", "localhost:8000")
	require.ErrorContains(t, err, "must use http or https")
}

func TestRootCommand_ConfigFile(t *testing.T) {
	server := testsupport.NewPredictionServer(t, http.StatusOK, testsupport.ScenarioCBody)
	cfgPath := filepath.Join(t.TempDir(), "survivalform.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("backend_url: "+server.URL+"\nfloor_delay: 0s\noutput: html\n"), 0o600))

	out := run(t, "predict", "--config", cfgPath, "--record", writeRecord(t, scenarioARecord))

	require.Contains(t, out, "<h2>Prediction Complete!</h2>")
	require.Len(t, server.Requests(), 1)
}
