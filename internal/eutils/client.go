package eutils

import (
	"github.com/pubtrend/pubtrend/internal/ncbi"
)

// Client issues esearch and efetch calls against the pubmed database.
// Pacing, the api_key and size limits come from the embedded base client.
type Client struct {
	*ncbi.BaseClient
}

// Option configures a Client.
type Option = ncbi.Option

// Options forwarded from ncbi so callers need only this package.
var (
	WithBaseURL = ncbi.WithBaseURL
	WithAPIKey  = ncbi.WithAPIKey
	WithLimiter = ncbi.WithLimiter
)

// NewClient returns a pubmed client.
func NewClient(opts ...Option) *Client {
	return &Client{BaseClient: ncbi.NewBaseClient(opts...)}
}
