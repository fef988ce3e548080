package eutils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// esearchResponse represents the raw JSON response from ESearch.
// Result is a pointer so a missing esearchresult object can be told apart
// from an empty one.
type esearchResponse struct {
	Result *esearchResult `json:"esearchresult"`
	Error  string         `json:"error"`
}

type esearchResult struct {
	Count            string `json:"count"`
	QueryTranslation string `json:"querytranslation"`
	WebEnv           string `json:"webenv"`
	QueryKey         string `json:"querykey"`
	Error            string `json:"ERROR"`
}

// Search performs an ESearch query against PubMed.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "json")

	limit := 20
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		if opts.CountOnly {
			limit = 0
		}
		if opts.MinDate != "" && opts.MaxDate != "" {
			params.Set("datetype", "pdat")
			params.Set("mindate", opts.MinDate)
			params.Set("maxdate", opts.MaxDate)
		}
		if opts.UseHistory {
			params.Set("usehistory", "y")
		}
	}
	params.Set("retmax", strconv.Itoa(limit))

	body, err := c.DoGet(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	return parseSearch(body)
}

func parseSearch(body []byte) (*SearchResult, error) {
	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	if resp.Result == nil {
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: esearchresult missing: %s", ErrMalformedResponse, resp.Error)
		}
		return nil, fmt.Errorf("%w: esearchresult missing", ErrMalformedResponse)
	}
	if resp.Result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, resp.Result.Error)
	}

	// An absent count means zero hits.
	count := 0
	if resp.Result.Count != "" {
		n, err := strconv.Atoi(resp.Result.Count)
		if err != nil {
			return nil, fmt.Errorf("%w: count %q is not a number", ErrMalformedResponse, resp.Result.Count)
		}
		count = n
	}

	return &SearchResult{
		Count:            count,
		QueryTranslation: resp.Result.QueryTranslation,
		WebEnv:           resp.Result.WebEnv,
		QueryKey:         resp.Result.QueryKey,
	}, nil
}
