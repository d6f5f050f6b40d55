// Package opensearch implements the comp full-text search index. The index
// is derived state: the worker rebuilds documents from comp events, and the
// API reads through the SearchIndex contract in the comp domain package.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/harkencre/appraisal-platform/internal/config"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/pkg/errors"
)

// ErrConnectionFailed is returned when the cluster cannot be reached at
// startup.
var ErrConnectionFailed = errors.New(errors.ErrCodeExternalService, "opensearch connection failed")

// Client wraps the OpenSearch client with the configured index prefix.
type Client struct {
	os          *opensearch.Client
	indexPrefix string
	logger      logging.Logger
}

// NewClient connects to the cluster and verifies it responds.
func NewClient(cfg config.OpenSearchConfig, log logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New(errors.CodeValidation, "opensearch addresses required")
	}

	transport := &http.Transport{MaxIdleConnsPerHost: 10}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		Transport:     transport,
		MaxRetries:    3,
		RetryBackoff:  func(int) time.Duration { return 100 * time.Millisecond },
		RetryOnStatus: []int{429, 502, 503, 504},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to create opensearch client")
	}

	c := &Client{
		os:          osClient,
		indexPrefix: cfg.IndexPrefix,
		logger:      log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return nil, ErrConnectionFailed
	}

	log.Info("connected to OpenSearch", logging.Any("addresses", cfg.Addresses))
	return c, nil
}

// NewClientWithOpenSearch wraps an existing client (tests).
func NewClientWithOpenSearch(os *opensearch.Client, indexPrefix string, log logging.Logger) *Client {
	return &Client{os: os, indexPrefix: indexPrefix, logger: log}
}

// Ping checks cluster reachability.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.os.Ping(c.os.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "opensearch ping failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errors.Newf(errors.ErrCodeExternalService, "opensearch ping returned %s", resp.Status())
	}
	return nil
}

// IndexName prefixes a base index name.
func (c *Client) IndexName(base string) string {
	if c.indexPrefix == "" {
		return base
	}
	return c.indexPrefix + "-" + base
}

// Raw returns the underlying client for request execution.
func (c *Client) Raw() *opensearch.Client {
	return c.os
}
