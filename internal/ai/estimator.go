package ai

import (
	"context"
	"net/http"
	"time"
)

// Estimator returns a free-text probability estimate for a prompt
type Estimator interface {
	Estimate(ctx context.Context, prompt string) (string, error)
}

type clientOptions struct {
	baseURL    string
	model      string
	httpClient *http.Client
	webSearch  bool
}

// Option configures an estimator client
type Option func(*clientOptions)

func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

func WithModel(model string) Option {
	return func(o *clientOptions) { o.model = model }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.httpClient = &http.Client{Timeout: d} }
}

// WithWebSearch lets the model search the web before answering (Anthropic only)
func WithWebSearch(enabled bool) Option {
	return func(o *clientOptions) { o.webSearch = enabled }
}

func buildOptions(defaultURL, defaultModel string, opts []Option) clientOptions {
	o := clientOptions{
		baseURL:    defaultURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
