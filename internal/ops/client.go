// Package ops implements the asynchronous act/poll protocol used for
// minting, offer redemption and pack opening: submit an operation to the
// tenant-scoped act endpoint, then poll the tenant's status feed until a
// matching entry completes or the iteration budget runs out.
package ops

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/internal/httputil"
	"github.com/mediafabric/fabric-client/internal/metrics"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

// StatusEntry is one entry of the tenant status feed.
type StatusEntry struct {
	Op     string      `json:"op"`
	Status string      `json:"status"`
	Extra  StatusExtra `json:"extra"`
}

// StatusExtra carries the result fields of a completed operation.
type StatusExtra struct {
	TransactionID   string      `json:"trans_id"`
	TransactionHash string      `json:"tx_hash"`
	TokenID         json.Number `json:"token_id"`
	ContractAddress string      `json:"token_addr"`
}

// StatusComplete is the terminal status value scanned for in the feed.
const StatusComplete = "complete"

// Client talks to the tenant-scoped wallet operation endpoints.
type Client struct {
	http *httputil.Client
	log  *logger.Logger
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string
	Tokens  httputil.TokenSource
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

// NewClient creates an operations client.
func NewClient(cfg ClientConfig) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("ops")
	}
	http, err := httputil.NewClient(httputil.Config{
		BaseURL: cfg.BaseURL,
		Service: "ops",
		Tokens:  cfg.Tokens,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Client{http: http, log: log}, nil
}

// Act submits one operation to the tenant's act endpoint.
func (c *Client) Act(ctx context.Context, tenantID string, body any) (json.RawMessage, error) {
	if tenantID == "" {
		return nil, errs.NewBadInput("tenantID", "empty")
	}
	var raw json.RawMessage
	if err := c.http.Post(ctx, "/wlt/act/"+tenantID, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// StatusFeed fetches the tenant's current operation status entries.
func (c *Client) StatusFeed(ctx context.Context, tenantID string) ([]StatusEntry, error) {
	if tenantID == "" {
		return nil, errs.NewBadInput("tenantID", "empty")
	}
	var entries []StatusEntry
	if err := c.http.Get(ctx, "/wlt/status/act/"+tenantID, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// NewCorrelationID generates the client-side reference ID embedded in a
// submitted operation: a UUID shortened to base58 so the poller can
// recognize its own operation in the feed.
func NewCorrelationID() string {
	id := uuid.New()
	return base58.Encode(id[:])
}
