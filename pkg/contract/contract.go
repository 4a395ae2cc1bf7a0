package contract

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	internalmodel "github.com/goliatone/go-survivalform/internal/model"
	"github.com/goliatone/go-survivalform/pkg/model"
)

//go:embed prediction.yaml
var embeddedDocument []byte

const (
	// PredictionPath is the collaborator endpoint, relative to the base URL.
	PredictionPath = "/Prediction"
	// MediaTypeJSON is the only media type the contract describes.
	MediaTypeJSON = "application/json"
)

var (
	// ErrRequestRejected wraps request bodies that do not satisfy the contract.
	ErrRequestRejected = errors.New("contract: request body violates contract")
	// ErrResponseRejected wraps responses that do not satisfy the contract.
	ErrResponseRejected = errors.New("contract: response body violates contract")
)

var missingPropertyPattern = regexp.MustCompile(`property "([^"]+)" is missing`)

// Violation describes the first schema failure found in a body.
type Violation struct {
	Field  string
	Reason string
	kind   error
}

func (v *Violation) Error() string {
	if v.Field == "" {
		return fmt.Sprintf("%v: %s", v.kind, v.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", v.kind, v.Field, v.Reason)
}

func (v *Violation) Unwrap() error { return v.kind }

// Contract is a parsed prediction document.
type Contract struct {
	raw      []byte
	request  *openapi3.Schema
	response *openapi3.Schema
	form     model.FormModel
}

var (
	defaultOnce     sync.Once
	defaultContract *Contract
	defaultErr      error
)

// Default returns the embedded contract, parsed once per process.
func Default() (*Contract, error) {
	defaultOnce.Do(func() {
		defaultContract, defaultErr = Load(context.Background(), embeddedDocument)
	})
	return defaultContract, defaultErr
}

// Document returns the embedded OpenAPI document as written.
func Document() []byte {
	return append([]byte(nil), embeddedDocument...)
}

// Load parses and validates an OpenAPI document and extracts the
// /Prediction operation.
func Load(ctx context.Context, data []byte) (*Contract, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("contract: document is empty")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("contract: validate: %w", err)
	}

	if doc.Paths == nil {
		return nil, errors.New("contract: document does not contain any paths")
	}
	item := doc.Paths.Map()[PredictionPath]
	if item == nil || item.Post == nil {
		return nil, fmt.Errorf("contract: POST %s is not described", PredictionPath)
	}
	op := item.Post

	request, err := requestSchema(op.RequestBody)
	if err != nil {
		return nil, err
	}
	response, err := responseSchema(op.Responses, "200")
	if err != nil {
		return nil, err
	}

	form, err := internalmodel.NewBuilder(internalmodel.Options{}).Build(internalmodel.Operation{
		ID:      op.OperationID,
		Method:  "POST",
		Path:    PredictionPath,
		Summary: op.Summary,
		Request: request,
	})
	if err != nil {
		return nil, fmt.Errorf("contract: build form: %w", err)
	}

	return &Contract{
		raw:      append([]byte(nil), data...),
		request:  request,
		response: response,
		form:     form,
	}, nil
}

// Raw returns the document the contract was loaded from.
func (c *Contract) Raw() []byte {
	return append([]byte(nil), c.raw...)
}

// Form returns the passenger form generated from the request schema.
func (c *Contract) Form() model.FormModel {
	form := c.form
	form.Fields = append([]model.Field(nil), c.form.Fields...)
	return form
}

// Enum returns the allowed values of a request property, or nil.
func (c *Contract) Enum(name string) []string {
	field, ok := c.form.Field(name)
	if !ok {
		return nil
	}
	return field.OptionValues()
}

// ValidateRequest checks an encoded request body against the request schema.
func (c *Contract) ValidateRequest(body []byte) error {
	return visit(c.request, body, ErrRequestRejected)
}

// ValidateResponse checks an encoded 200 response against the response
// schema. A body missing any of the prediction keys fails here.
func (c *Contract) ValidateResponse(body []byte) error {
	return visit(c.response, body, ErrResponseRejected)
}

func visit(schema *openapi3.Schema, body []byte, kind error) error {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return &Violation{Reason: "body is not valid JSON: " + err.Error(), kind: kind}
	}
	if err := schema.VisitJSON(value); err != nil {
		return violationFrom(err, kind)
	}
	return nil
}

func violationFrom(err error, kind error) *Violation {
	v := &Violation{Reason: err.Error(), kind: kind}

	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		return v
	}
	v.Reason = schemaErr.Reason
	if pointer := schemaErr.JSONPointer(); len(pointer) > 0 {
		v.Field = pointer[0]
	} else if m := missingPropertyPattern.FindStringSubmatch(schemaErr.Reason); len(m) == 2 {
		v.Field = m[1]
	}
	return v
}

func requestSchema(body *openapi3.RequestBodyRef) (*openapi3.Schema, error) {
	if body == nil || body.Value == nil {
		return nil, errors.New("contract: request body is not described")
	}
	mt, ok := body.Value.Content[MediaTypeJSON]
	if !ok || mt == nil || mt.Schema == nil || mt.Schema.Value == nil {
		return nil, fmt.Errorf("contract: request body has no %s schema", MediaTypeJSON)
	}
	return mt.Schema.Value, nil
}

func responseSchema(responses *openapi3.Responses, status string) (*openapi3.Schema, error) {
	if responses == nil {
		return nil, errors.New("contract: responses are not described")
	}
	ref := responses.Map()[status]
	if ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("contract: response %s is not described", status)
	}
	mt, ok := ref.Value.Content[MediaTypeJSON]
	if !ok || mt == nil || mt.Schema == nil || mt.Schema.Value == nil {
		return nil, fmt.Errorf("contract: response %s has no %s schema", status, MediaTypeJSON)
	}
	return mt.Schema.Value, nil
}
