package huggingface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://api-inference.huggingface.co"
	DefaultModel   = "facebook/bart-large-mnli"

	defaultIOTimeout = 30 * time.Second
)

// ClassifyOperation names the classifier call for the resilience executor.
const ClassifyOperation = "huggingface.classify"

type Client struct {
	baseURL    string
	model      string
	token      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model, token string) *Client {
	return NewWithOptions(baseURL, model, token, Options{})
}

func NewWithOptions(baseURL, model, token string, options Options) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(defaultIOTimeout)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      strings.Trim(model, "/"),
		token:      token,
		httpClient: httpClient,
		executor:   options.ResilienceExecutor,
	}
}

// newHTTPClient applies the same budget to connect, request write and
// response read.
func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{
		Transport: transport,
		Timeout:   3 * timeout,
	}
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

type zeroShotResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

func (c *Client) Classify(ctx context.Context, req domain.ZeroShotRequest) (domain.ZeroShotResult, error) {
	payload := zeroShotRequest{
		Inputs: req.Text,
		Parameters: zeroShotParameters{
			CandidateLabels: req.Candidates,
			MultiLabel:      req.MultiLabel,
		},
	}

	var response zeroShotResponse
	call := func(callCtx context.Context) error {
		response = zeroShotResponse{}
		return c.postJSON(callCtx, "/models/"+c.model, payload, &response, "classify")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, ClassifyOperation, call, classifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.ZeroShotResult{}, wrapTemporaryIfNeeded("huggingface classify", err)
	}

	return toResult(response)
}

func toResult(response zeroShotResponse) (domain.ZeroShotResult, error) {
	if len(response.Labels) == 0 {
		return domain.ZeroShotResult{}, domain.WrapError(domain.ErrClassifier, "decode classify response", errors.New("no labels returned"))
	}
	if len(response.Labels) != len(response.Scores) {
		return domain.ZeroShotResult{}, domain.WrapError(
			domain.ErrClassifier,
			"decode classify response",
			fmt.Errorf("labels/scores mismatch: %d/%d", len(response.Labels), len(response.Scores)),
		)
	}

	scores := make([]domain.LabelScore, 0, len(response.Labels))
	for i, label := range response.Labels {
		scores = append(scores, domain.LabelScore{Label: label, Score: response.Scores[i]})
	}
	return domain.ZeroShotResult{Sequence: response.Sequence, Scores: scores}, nil
}
