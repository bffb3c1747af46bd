// Package classifier calls the hosted skin-lesion model.
package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"skinscan/internal/config"
	"skinscan/internal/model"
)

var (
	// ErrNotConfigured is returned when no access token is set.
	ErrNotConfigured = errors.New("classifier not configured")
	// ErrClassification wraps every failure to obtain a usable prediction.
	ErrClassification = errors.New("classification failed")
)

// Client produces a prediction for one image.
type Client interface {
	Predict(ctx context.Context, image []byte, contentType string) (model.Prediction, error)
}

// HTTPClient posts images to a Gradio-style predict endpoint behind a circuit breaker.
type HTTPClient struct {
	url     string
	token   string
	timeout time.Duration
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
}

var _ Client = (*HTTPClient)(nil)

// New builds a classifier client. A nil httpClient gets a traced default.
func New(cfg config.ClassifierConfig, httpClient *http.Client, log zerolog.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	settings := gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &HTTPClient{
		url:     cfg.URL,
		token:   cfg.Token,
		timeout: cfg.Timeout,
		http:    httpClient,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

type predictRequest struct {
	Data []string `json:"data"`
}

type rawPrediction struct {
	DiseaseCode      string             `json:"disease_code"`
	DiseaseName      string             `json:"disease_name"`
	Confidence       *float64           `json:"confidence"`
	AllProbabilities map[string]float64 `json:"all_probabilities"`
}

// Predict sends the image as a data URI and parses the model output.
func (c *HTTPClient) Predict(ctx context.Context, image []byte, contentType string) (model.Prediction, error) {
	if c.token == "" {
		return model.Prediction{}, ErrNotConfigured
	}
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}

	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.call(ctx, image, contentType)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return model.Prediction{}, fmt.Errorf("%w: %v", ErrClassification, err)
		}
		return model.Prediction{}, err
	}
	return out.(model.Prediction), nil
}

func (c *HTTPClient) call(ctx context.Context, image []byte, contentType string) (model.Prediction, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(predictRequest{
		Data: []string{"data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)},
	})
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: encode request: %v", ErrClassification, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: build request: %v", ErrClassification, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: read response: %v", ErrClassification, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Prediction{}, fmt.Errorf("%w: unexpected status %d", ErrClassification, resp.StatusCode)
	}
	return ParseResponse(body)
}

// ParseResponse accepts either {"data":[{...}]} or the prediction object itself.
// A missing disease code or confidence is an error; a missing distribution
// becomes an empty map.
func ParseResponse(body []byte) (model.Prediction, error) {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	candidate := body
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		candidate = envelope.Data[0]
	}

	var rp rawPrediction
	if err := json.Unmarshal(candidate, &rp); err != nil {
		return model.Prediction{}, fmt.Errorf("%w: malformed response: %v", ErrClassification, err)
	}
	if rp.DiseaseCode == "" {
		return model.Prediction{}, fmt.Errorf("%w: response has no disease_code", ErrClassification)
	}
	if rp.Confidence == nil {
		return model.Prediction{}, fmt.Errorf("%w: response has no confidence", ErrClassification)
	}
	if rp.AllProbabilities == nil {
		rp.AllProbabilities = map[string]float64{}
	}
	return model.Prediction{
		DiseaseCode:      rp.DiseaseCode,
		DiseaseName:      rp.DiseaseName,
		Confidence:       *rp.Confidence,
		AllProbabilities: rp.AllProbabilities,
	}, nil
}
