// Package recruitee is a client for the Recruitee REST API.
//
// Every request is scoped to one company (tenant) and authenticated with a
// bearer token given once at construction:
//
//	client, err := recruitee.New("acme", token)
//	if err != nil {
//		return err
//	}
//	candidates, err := client.Candidates.List(ctx, nil)
//
// Failed responses are returned as *APIError, failures without a response as
// *TransportError.
package recruitee

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ochronus/gorecruitee/recruitee/payload"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://api.recruitee.com"
	DefaultTimeout = 10 * time.Second
	Version        = "0.3.0"
)

// DefaultUserAgent identifies this client to the API.
var DefaultUserAgent = fmt.Sprintf("gorecruitee/%s (+https://github.com/ochronus/gorecruitee)", Version)

// Requester performs a single API request. Resource facades depend on this
// contract only, so tests can substitute the transport.
type Requester interface {
	Request(ctx context.Context, method, path string, opts RequestOptions) (*Response, error)
}

// RequestOptions carries the optional body and query of a request.
type RequestOptions struct {
	Body  any
	Query Query
}

// Config is the fixed configuration captured by a Client.
type Config struct {
	CompanyID string        `validate:"required"`
	APIToken  string        `validate:"required"`
	BaseURL   string        `validate:"required,url"`
	Timeout   time.Duration `validate:"gt=0"`
	UserAgent string        `validate:"required"`
}

// Client talks to the API on behalf of one company.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *logrus.Logger

	Admins      *Admins
	Candidates  *Candidates
	Evaluations *Evaluations
	Events      *Events
	Offers      *Offers
	Placements  *Placements
}

var _ Requester = (*Client)(nil)

// Option customizes a Client during construction.
type Option func(*Client) error

// WithBaseURL points the client at another API host, such as a sandbox.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		c.config.BaseURL = strings.TrimRight(baseURL, "/")
		return nil
	}
}

// WithTimeout overrides the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.config.Timeout = timeout
		return nil
	}
}

// WithHTTPClient overrides the underlying HTTP client. Its timeout is
// replaced by the configured one.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		c.config.UserAgent = userAgent
		return nil
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New creates a client for companyID authenticated with apiToken.
func New(companyID, apiToken string, opts ...Option) (*Client, error) {
	c := &Client{
		config: Config{
			CompanyID: companyID,
			APIToken:  apiToken,
			BaseURL:   DefaultBaseURL,
			Timeout:   DefaultTimeout,
			UserAgent: DefaultUserAgent,
		},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := validate.Struct(c.config); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	} else {
		clone := *c.httpClient
		c.httpClient = &clone
	}
	c.httpClient.Timeout = c.config.Timeout

	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetOutput(io.Discard)
	}

	c.Admins = &Admins{r: c}
	c.Candidates = &Candidates{resource: candidates(c)}
	c.Evaluations = &Evaluations{resource: evaluations(c)}
	c.Events = &Events{resource: events(c)}
	c.Offers = &Offers{resource: offers(c)}
	c.Placements = &Placements{r: c}

	return c, nil
}

// Config returns the client's configuration.
func (c *Client) Config() Config {
	return c.config
}

// URL resolves path against the company scoped base URL.
func (c *Client) URL(path string) string {
	return c.config.BaseURL + "/c/" + url.PathEscape(c.config.CompanyID) + path
}

// Request sends one request and returns the decoded response. Bodies are only
// sent for POST, PUT and PATCH.
func (c *Client) Request(ctx context.Context, method, path string, opts RequestOptions) (*Response, error) {
	requestID := uuid.NewString()
	info := &RequestInfo{Method: method, URL: c.URL(path), RequestID: requestID}
	logger := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.config.APIToken)
	header.Set("User-Agent", c.config.UserAgent)
	header.Set("Accept", "application/json")
	header.Set("X-Request-Id", requestID)

	var body io.Reader
	if opts.Body != nil {
		if allowsBody(method) {
			encoded, err := payload.Encode(opts.Body, header)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
			}
			body = encoded
		} else {
			logger.Warnf("Dropping request body for %s request", method)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, info.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header = header
	if len(opts.Query) > 0 {
		req.URL.RawQuery = encodeQuery(opts.Query).Encode()
		info.URL = req.URL.String()
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debugf("Request failed: %v", err)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	logger.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("Request completed")

	parsed := parseBody(raw)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := NewAPIError(resp.StatusCode, parsed, info)
		apiErr.Header = resp.Header
		return nil, apiErr
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       parsed,
		Raw:        raw,
	}, nil
}

func allowsBody(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func encodeQuery(query Query) url.Values {
	values := url.Values{}
	for key, v := range query {
		switch payload.KindOf(v) {
		case payload.KindNull:
		case payload.KindSequence, payload.KindMapping:
			for _, f := range payload.Flatten(key, v) {
				values.Add(f.Key, f.Value)
			}
		default:
			values.Set(key, payload.Stringify(v))
		}
	}
	return values
}
