package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skybow044/dalghaksub/internal/model"
	"golang.org/x/time/rate"
)

// MaxPages is the fixed ceiling on pages fetched by one crawl.
const MaxPages = 20

// Crawler walks a channel from its newest page towards older pages.
// A Crawler is not safe for concurrent use; each run owns its own.
type Crawler struct {
	// fetcher retrieves page bodies.
	fetcher Fetcher

	// baseURL is the first-page URL of the channel.
	baseURL string

	// limiter spaces out page fetches.
	limiter *rate.Limiter

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithDelay sets the minimum delay between two page fetches.
// Zero or negative disables the delay.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler for the channel page at baseURL.
func New(fetcher Fetcher, baseURL string, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher: fetcher,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of a crawl.
type Result struct {
	// Messages are the collected messages, truncated to the requested count.
	Messages []model.Message

	// PagesFetched counts page requests, including a failed last one.
	PagesFetched int

	// StopReason is the stop condition that ended the crawl.
	StopReason model.StopReason

	// Cursor is the last cursor that was followed.
	Cursor string
}

// Crawl collects up to count distinct messages.
//
// A failure on the first page is returned as an error. A failure on a later
// page ends the crawl and the messages gathered so far are returned.
// Running out of messages before count is reached is not an error.
func (c *Crawler) Crawl(ctx context.Context, count int) (*Result, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}

	var (
		cursor    string
		collected = make([]model.Message, 0, count)
		seen      = make(map[string]struct{})
		result    = &Result{}
	)

	for {
		if result.PagesFetched >= MaxPages {
			result.StopReason = model.StopReasonPageCeiling
			break
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		pageURL := PageURL(c.baseURL, cursor)
		result.PagesFetched++

		page, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			if result.PagesFetched == 1 || ctx.Err() != nil {
				return nil, err
			}
			c.logger.Warn("page fetch failed, keeping partial results",
				"url", pageURL,
				"page", result.PagesFetched,
				"collected", len(collected),
				"error", err,
			)
			result.StopReason = model.StopReasonFetchFailed
			break
		}

		if len(page.Messages) == 0 {
			result.StopReason = model.StopReasonEmptyPage
			break
		}

		added := 0
		for _, m := range page.Messages {
			if _, dup := seen[m.Text]; dup {
				continue
			}
			seen[m.Text] = struct{}{}
			collected = append(collected, m)
			added++
		}

		c.logger.Debug("page collected",
			"url", pageURL,
			"page", result.PagesFetched,
			"messages", len(page.Messages),
			"new", added,
			"cursor", page.Cursor,
		)

		if len(collected) >= count {
			result.StopReason = model.StopReasonCountReached
			break
		}
		// A page of reposts still moves the cursor; MaxPages bounds the walk.
		if page.Cursor == "" || page.Cursor == cursor {
			result.StopReason = model.StopReasonNoProgress
			break
		}
		cursor = page.Cursor
	}

	if len(collected) > count {
		collected = collected[:count]
	}
	result.Messages = collected
	result.Cursor = cursor

	return result, nil
}

// fetchPage fetches and parses a single page.
func (c *Crawler) fetchPage(ctx context.Context, pageURL string) (*model.RawPage, error) {
	body, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	return page, nil
}

// Latest fetches only the first page and returns its newest message.
func Latest(ctx context.Context, fetcher Fetcher, baseURL string) (model.Message, error) {
	body, err := fetcher.Fetch(ctx, baseURL)
	if err != nil {
		return model.Message{}, err
	}

	page, err := ParsePage(bytes.NewReader(body))
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to parse %s: %w", baseURL, err)
	}
	if len(page.Messages) == 0 {
		return model.Message{}, ErrNoMessages
	}

	return page.Messages[len(page.Messages)-1], nil
}
