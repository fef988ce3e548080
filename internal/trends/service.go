package trends

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pubtrend/pubtrend/internal/eutils"
	"github.com/pubtrend/pubtrend/internal/throttle"
)

const (
	// DefaultPageSize is the number of records fetched per Institutions call.
	DefaultPageSize = 1000
	// MaxPageSize bounds the page size of Institutions.
	MaxPageSize = 1000

	// MinYear and MaxYear bound the years Trend accepts.
	MinYear = 1
	MaxYear = 9999
	// MaxYearSpan caps the number of years, and so of upstream requests,
	// in one Trend call.
	MaxYearSpan = 500

	// LatestRetMax is the ESearch retmax for rolling-window searches; the
	// full result set stays available through the history server.
	LatestRetMax = 10000
	// LatestWindowDays is the length of the rolling window.
	LatestWindowDays = 365

	dateLayout = "2006/01/02"
)

// Upstream is the subset of the eutils client the service needs.
type Upstream interface {
	Search(ctx context.Context, query string, opts *eutils.SearchOptions) (*eutils.SearchResult, error)
	FetchHistory(ctx context.Context, page eutils.HistoryPage) ([]eutils.Article, error)
}

// Clock supplies the current time for the rolling window.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Service runs the trend, latest-publications and institutions operations.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	upstream Upstream
	log      *zap.Logger
	clock    Clock
	fanout   throttle.Options
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithConcurrency bounds the per-year fan-out of Trend: at most n requests
// in flight and at most n started per window.
func WithConcurrency(n int, window time.Duration) Option {
	return func(s *Service) {
		s.fanout = throttle.Options{MaxAtOnce: n, MaxPerWindow: n, Window: window}
	}
}

// NewService creates a Service backed by the given upstream client.
func NewService(up Upstream, opts ...Option) *Service {
	s := &Service{
		upstream: up,
		log:      zap.NewNop(),
		clock:    systemClock{},
		fanout:   throttle.Options{MaxAtOnce: 5, MaxPerWindow: 5, Window: time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// normalizeTerm collapses whitespace runs in a free-text disease term.
func normalizeTerm(disease string) (string, error) {
	fields := strings.Fields(disease)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: disease term cannot be empty", ErrInvalidInput)
	}
	return strings.Join(fields, " "), nil
}

// checkYearRange rejects ranges Trend cannot serve. Bounds are checked first
// so the span arithmetic cannot overflow.
func checkYearRange(minYear, maxYear int) error {
	for _, y := range []int{minYear, maxYear} {
		if y < MinYear || y > MaxYear {
			return fmt.Errorf("%w: year %d outside %d..%d", ErrInvalidYearRange, y, MinYear, MaxYear)
		}
	}
	if minYear > maxYear {
		return fmt.Errorf("%w: the start of year range %d cannot be bigger than the end %d", ErrInvalidYearRange, minYear, maxYear)
	}
	if span := maxYear - minYear + 1; span > MaxYearSpan {
		return fmt.Errorf("%w: %d years requested, at most %d allowed", ErrInvalidYearRange, span, MaxYearSpan)
	}
	return nil
}

// Trend returns the number of publications mentioning disease for every
// year in [minYear, maxYear], in ascending year order.
func (s *Service) Trend(ctx context.Context, disease string, minYear, maxYear int) ([]PublicationYearCount, error) {
	if err := checkYearRange(minYear, maxYear); err != nil {
		return nil, err
	}
	term, err := normalizeTerm(disease)
	if err != nil {
		return nil, err
	}

	log := s.log.With(zap.String("disease", term))
	years := make([]int, 0, maxYear-minYear+1)
	for y := minYear; y <= maxYear; y++ {
		years = append(years, y)
	}

	tasks := make([]throttle.Task[int], len(years))
	for i, yr := range years {
		tasks[i] = func(ctx context.Context) (int, error) {
			log.Debug("downloading year", zap.Int("year", yr))
			y := strconv.Itoa(yr)
			res, err := s.upstream.Search(ctx, term, &eutils.SearchOptions{
				CountOnly: true,
				MinDate:   y,
				MaxDate:   y,
			})
			if err != nil {
				return 0, fmt.Errorf("year %d: %w", yr, err)
			}
			return res.Count, nil
		}
	}

	counts, err := throttle.RunAll(ctx, tasks, s.fanout)
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			log.Error("JSON corrupted, perhaps the download concurrency is too high", zap.Error(err))
		}
		return nil, fmt.Errorf("downloading trend: %w", err)
	}

	out := make([]PublicationYearCount, len(years))
	for i, yr := range years {
		out[i] = PublicationYearCount{PublicationCount: counts[i], Year: yr}
	}
	return out, nil
}

// LatestPublications searches the trailing 365 days for disease and keeps
// the result set on the NCBI history server.
func (s *Service) LatestPublications(ctx context.Context, disease string) (*SearchHistoryHandle, error) {
	term, err := normalizeTerm(disease)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	res, err := s.upstream.Search(ctx, term, &eutils.SearchOptions{
		Limit:      LatestRetMax,
		MinDate:    now.AddDate(0, 0, -LatestWindowDays).Format(dateLayout),
		MaxDate:    now.Format(dateLayout),
		UseHistory: true,
	})
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			s.log.Error("JSON corrupted, perhaps the rate limit was exceeded", zap.String("disease", term), zap.Error(err))
		}
		return nil, fmt.Errorf("searching latest publications: %w", err)
	}
	s.log.Debug("latest publications search",
		zap.String("disease", term),
		zap.String("query_translation", res.QueryTranslation),
		zap.Int("count", res.Count),
	)
	if res.WebEnv == "" || res.QueryKey == "" {
		return nil, fmt.Errorf("%w: search history handle missing", ErrMalformedResponse)
	}

	return &SearchHistoryHandle{
		SearchEnvironment: res.WebEnv,
		QueryKey:          res.QueryKey,
		TotalCount:        strconv.Itoa(res.Count),
	}, nil
}

// Institutions fetches maxRecords records starting at start from the stored search
// and returns the unique author affiliations found in them.
func (s *Service) Institutions(ctx context.Context, webEnv, queryKey string, start, maxRecords int) ([]string, error) {
	if strings.TrimSpace(webEnv) == "" {
		return nil, fmt.Errorf("%w: search environment cannot be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(queryKey) == "" {
		return nil, fmt.Errorf("%w: query key cannot be empty", ErrInvalidInput)
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: start offset cannot be negative: %d", ErrInvalidInput, start)
	}
	if maxRecords < 1 {
		return nil, fmt.Errorf("%w: max records must be positive: %d", ErrInvalidInput, maxRecords)
	}
	if maxRecords > MaxPageSize {
		maxRecords = MaxPageSize
	}

	articles, err := s.upstream.FetchHistory(ctx, eutils.HistoryPage{
		WebEnv:   webEnv,
		QueryKey: queryKey,
		Start:    start,
		Max:      maxRecords,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}

	return ExtractAffiliations(s.log, articles), nil
}
