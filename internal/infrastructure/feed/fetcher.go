package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/ports"
	"NewsFeedRanker/internal/scanner"
	"NewsFeedRanker/pkg/retry"
)

const maxBodyBytes = 10 << 20

// statusError is a non-2xx answer from a feed endpoint.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("feed returned %s", e.status)
}

// HTTPFetcher downloads a source with retries and decodes it with the
// decoder registered for the source feed type.
type HTTPFetcher struct {
	client    *http.Client
	registry  *scanner.Registry
	policy    retry.Policy
	userAgent string
	logger    *slog.Logger
}

var _ ports.FeedFetcher = (*HTTPFetcher)(nil)

// Options tunes an HTTPFetcher; zero values pick defaults.
type Options struct {
	Client    *http.Client
	Policy    retry.Policy
	UserAgent string
	Logger    *slog.Logger
}

// NewHTTPFetcher wires an HTTP client; the timeout defaults to 10 seconds.
func NewHTTPFetcher(reg *scanner.Registry, opts Options) *HTTPFetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	policy := opts.Policy
	if policy.Attempts == 0 {
		policy = retry.Default()
	}
	policy.Retryable = isTransient

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "NewsFeedRanker/1.0"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &HTTPFetcher{
		client:    client,
		registry:  reg,
		policy:    policy,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch returns the entries of one source. Transport failures that survive
// the retry policy are returned as domain.ErrFetch. A document that cannot be
// decoded, or holds no entries, yields an empty result and no error.
func (f *HTTPFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.RawEntry, error) {
	decoder, err := f.registry.Resolve(src.FeedType)
	if err != nil {
		return nil, fmt.Errorf("%w: source %s: %w", domain.ErrFetch, src.URL, err)
	}

	var body []byte
	err = retry.Do(ctx, f.policy, func(ctx context.Context) error {
		b, dErr := f.download(ctx, src.URL)
		if dErr != nil {
			f.logger.Debug("fetch attempt failed", "source", src.URL, "error", dErr)
			return dErr
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: source %s: %w", domain.ErrFetch, src.URL, err)
	}

	entries, err := decoder.Decode(ctx, scanner.Document{SourceURL: src.URL, Body: body})
	if err != nil {
		f.logger.Warn("feed document not parseable", "source", src.URL, "feed_type", decoder.FeedType(), "error", err)
		return nil, nil
	}
	if len(entries) == 0 {
		f.logger.Warn("feed document has no entries", "source", src.URL)
		return nil, nil
	}

	for i := range entries {
		entries[i].SourceURL = src.URL
	}

	f.logger.Debug("source fetched", "source", src.URL, "entries", len(entries))
	return entries, nil
}

func (f *HTTPFetcher) download(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/html;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	return body, nil
}

// isTransient retries transport failures, 5xx and 429; other statuses are final.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError || se.code == http.StatusTooManyRequests
	}

	return !errors.Is(err, context.Canceled)
}
