// Package predict talks to the survival prediction service. A Client posts a
// passenger record to `<base>/Prediction` and decodes the three model
// predictions, checking both bodies against the embedded contract.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/goliatone/go-survivalform/pkg/contract"
	"github.com/goliatone/go-survivalform/pkg/errmap"
	"github.com/goliatone/go-survivalform/pkg/passenger"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// SpanName is the name of the span opened around each prediction call.
const SpanName = "predict.Client.Predict"

const maxResponseBytes = 1 << 20

var (
	// ErrMalformedResponse is returned when a 2xx body is not a complete
	// prediction result.
	ErrMalformedResponse = errors.New("predict: malformed response")
	// ErrUnexpectedStatus is wrapped by every *StatusError.
	ErrUnexpectedStatus = errors.New("predict: unexpected status")
)

// Predictor is the collaborator the submission controller depends on.
type Predictor interface {
	Predict(ctx context.Context, in passenger.Input) (Result, error)
}

// Result holds the three predictions exactly as the service encoded them.
type Result struct {
	LogisticRegression json.Number `json:"Logistic Regression Prediction"`
	RandomForest       json.Number `json:"Random Forest Prediction"`
	Ensemble           json.Number `json:"Ensemble Model Prediction"`
}

// StatusError reports a non-2xx response. Fields is populated when the service
// rejected individual passenger attributes (HTTP 422).
type StatusError struct {
	StatusCode int
	Status     string
	Fields     passenger.Errors
	Form       []string
}

func (e *StatusError) Error() string {
	status := strings.TrimSpace(e.Status)
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%v: %s", ErrUnexpectedStatus, status)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. The client is copied.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			clone := *client
			c.http = &clone
		}
	}
}

// WithContract overrides the contract used to check request and response
// bodies. The embedded contract is used otherwise.
func WithContract(ct *contract.Contract) Option {
	return func(c *Client) {
		c.contract = ct
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the tracer. Defaults to the global provider's tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithTimeout bounds each call. Zero means no bound beyond the caller's
// context.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Client is an HTTP Predictor.
type Client struct {
	baseURL  string
	http     *http.Client
	contract *contract.Contract
	logger   *zap.Logger
	tracer   trace.Tracer
	timeout  time.Duration
}

var _ Predictor = (*Client)(nil)

// New constructs a Client for baseURL. An empty baseURL falls back to
// DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("predict: base url %q must use http or https", baseURL)
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("github.com/goliatone/go-survivalform/pkg/predict")
	}
	if c.contract == nil {
		ct, err := contract.Default()
		if err != nil {
			return nil, fmt.Errorf("predict: load contract: %w", err)
		}
		c.contract = ct
	}
	return c, nil
}

// Endpoint returns the absolute prediction URL.
func (c *Client) Endpoint() string {
	return c.baseURL + contract.PredictionPath
}

// Predict posts the record and returns the decoded predictions.
func (c *Client) Predict(ctx context.Context, in passenger.Input) (Result, error) {
	ctx, span := c.tracer.Start(ctx, SpanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.url", c.Endpoint()))

	result, err := c.predict(ctx, span, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	return result, nil
}

func (c *Client) predict(ctx context.Context, span trace.Span, in passenger.Input) (Result, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return Result{}, fmt.Errorf("predict: encode request: %w", err)
	}
	if err := c.contract.ValidateRequest(body); err != nil {
		return Result{}, fmt.Errorf("predict: %w", err)
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("predict: build request: %w", err)
	}
	req.Header.Set("Content-Type", contract.MediaTypeJSON)
	req.Header.Set("Accept", contract.MediaTypeJSON)

	started := time.Now()
	c.logger.Debug("prediction request", zap.String("url", c.Endpoint()))

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("predict: send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("predict: read response: %w", err)
	}
	c.logger.Debug("prediction response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("bytes", len(payload)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, statusError(resp, payload)
	}
	return decodeResult(c.contract, payload)
}

func decodeResult(ct *contract.Contract, payload []byte) (Result, error) {
	if err := ct.ValidateResponse(payload); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	var result Result
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	if err := decoder.Decode(&result); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return result, nil
}

func statusError(resp *http.Response, payload []byte) *StatusError {
	out := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		return out
	}

	details, err := errmap.DecodeFastAPI(payload)
	if err != nil {
		return out
	}
	keys := make([]string, 0, len(passenger.InputFields)+1)
	for _, field := range passenger.InputFields {
		keys = append(keys, string(field))
	}
	keys = append(keys, string(passenger.FieldIsAlone))

	mapping := errmap.Map(keys, details)
	out.Form = mapping.Form
	if len(mapping.Fields) > 0 {
		out.Fields = passenger.Errors{}
		for name, messages := range mapping.Fields {
			out.Fields[passenger.Field(name)] = messages[0]
		}
	}
	return out
}
