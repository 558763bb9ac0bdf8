package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ochronus/gorecruitee/internal/config"
	"github.com/ochronus/gorecruitee/internal/retry"
	"github.com/ochronus/gorecruitee/recruitee"
	"github.com/sirupsen/logrus"
)

// Container centralizes the core dependencies used by the CLI commands.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Client *recruitee.Client
	Retry  retry.Policy
}

// Option allows customizing the container during construction.
type Option func(*Container) error

// WithLogger overrides the default logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Container) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.Logger = logger
		return nil
	}
}

// WithClient overrides the default API client.
func WithClient(client *recruitee.Client) Option {
	return func(c *Container) error {
		if client == nil {
			return fmt.Errorf("recruitee client cannot be nil")
		}
		c.Client = client
		return nil
	}
}

// WithRetryPolicy overrides the retry policy derived from the config.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Container) error {
		c.Retry = policy
		return nil
	}
}

// NewContainer builds a Container with defaults derived from cfg.
// Options can be supplied to override specific dependencies (useful in tests).
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	container := &Container{
		Config: cfg,
		Logger: NewLogger(cfg.Loglevel),
		Retry:  retry.Policy{Attempts: cfg.Retries},
	}

	for _, opt := range opts {
		if err := opt(container); err != nil {
			return nil, err
		}
	}

	if container.Retry.OnRetry == nil {
		logger := container.Logger
		container.Retry.OnRetry = func(attempt int, delay time.Duration, err error) {
			logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"delay":   delay,
			}).Warnf("Retrying after error: %v", err)
		}
	}

	if container.Client == nil {
		client, err := recruitee.New(cfg.CompanyID, cfg.APIToken,
			recruitee.WithBaseURL(cfg.BaseURL),
			recruitee.WithTimeout(cfg.RequestTimeout()),
			recruitee.WithLogger(container.Logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create recruitee client: %w", err)
		}
		container.Client = client
	}

	return container, nil
}

// Do runs op under the container's retry policy.
func (c *Container) Do(ctx context.Context, op func(ctx context.Context) error) error {
	return retry.Do(ctx, c.Retry, op)
}

// NewLogger returns the application logger at the given level, falling back
// to info when the level cannot be parsed.
func NewLogger(levelStr string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
