// Package eutils provides a client for the NCBI E-utilities API.
package eutils

import "errors"

// ErrMalformedResponse is returned when an E-utilities payload lacks a
// field the caller depends on. NCBI answers this way when the caller is
// over its rate limit.
var ErrMalformedResponse = errors.New("malformed E-utilities response")

// SearchResult represents the result of an ESearch query.
type SearchResult struct {
	Count int
	// QueryTranslation is the term as NCBI expanded it (MeSH mapping etc).
	QueryTranslation string
	WebEnv           string
	QueryKey         string
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the retmax sent to NCBI. Zero means the default of 20.
	Limit int
	// CountOnly sends retmax=0 so only the count is returned.
	CountOnly bool
	// MinDate and MaxDate filter on publication date when both are set.
	// Accepted formats are YYYY, YYYY/MM and YYYY/MM/DD.
	MinDate    string
	MaxDate    string
	UseHistory bool
}

// HistoryPage selects a page of a search kept on the NCBI history server.
type HistoryPage struct {
	WebEnv   string
	QueryKey string
	Start    int
	Max      int
}

// Article is a PubMed record reduced to its authors.
type Article struct {
	PMID    string
	Authors []Author
}

// Author represents an article author.
type Author struct {
	LastName        string
	ForeName        string
	CollectiveName  string
	AffiliationInfo []AffiliationInfo
}

// AffiliationInfo is one AffiliationInfo element of an author.
// Affiliation is empty when the element carried no usable text.
type AffiliationInfo struct {
	Affiliation string
	Identifiers []string
}

// FullName returns "ForeName LastName", or CollectiveName if present.
func (a Author) FullName() string {
	if a.CollectiveName != "" {
		return a.CollectiveName
	}
	if a.ForeName == "" {
		return a.LastName
	}
	return a.ForeName + " " + a.LastName
}
