// Package trends implements the publication trend, rolling-window search and
// institution extraction operations on top of the eutils client.
package trends

import (
	"errors"
	"fmt"

	"github.com/pubtrend/pubtrend/internal/eutils"
)

var (
	// ErrInvalidInput marks caller mistakes. The HTTP layer maps it to 422.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidYearRange is returned when the start year is after the end
	// year, a year is out of bounds or the range is too long.
	ErrInvalidYearRange = fmt.Errorf("%w: invalid year range", ErrInvalidInput)

	// ErrMalformedResponse is returned when NCBI omits a field the
	// operation depends on.
	ErrMalformedResponse = eutils.ErrMalformedResponse
)

// PublicationYearCount is the number of publications in one year.
type PublicationYearCount struct {
	PublicationCount int `json:"nPub"`
	Year             int `json:"year"`
}

// SearchHistoryHandle identifies a search stored on the NCBI history server.
// Callers pass the values back unchanged to page through the results.
type SearchHistoryHandle struct {
	SearchEnvironment string `json:"webEnv"`
	QueryKey          string `json:"queryKey"`
	TotalCount        string `json:"count"`
}
