// In file: internal/llm/options.go
package llm

import (
	"net/http"
	"time"
)

// clientOptions collects the settings shared by the HTTP-based clients.
type clientOptions struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// ClientOption configures a provider client.
type ClientOption func(*clientOptions)

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

// WithTimeout sets the per-call timeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is left
// untouched.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

func applyOptions(defaultURL string, opts []ClientOption) clientOptions {
	o := clientOptions{baseURL: defaultURL, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	return o
}
