package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"warranty-analytics/pkg/models"
)

// ErrRetriesExhausted is returned when a page still fails after every retry.
var ErrRetriesExhausted = errors.New("registrations API: retries exhausted")

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	PageSize   int
	MaxRetries int
	Timeout    time.Duration
	// Backoff is the first retry delay; it doubles on each attempt.
	Backoff time.Duration
	// Progress receives the page progress bar. Nil disables it.
	Progress io.Writer
}

// Client pages through the vendor registrations API.
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	maxRetries int
	backoff    time.Duration
	progress   io.Writer
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new registrations API client
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		pageSize:   opts.PageSize,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		progress:   opts.Progress,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger,
	}
}

type page struct {
	Data       []models.Registration `json:"data"`
	Page       int                   `json:"page"`
	TotalPages int                   `json:"totalPages"`
}

// FetchAll downloads every page of registrations.
func (c *Client) FetchAll(ctx context.Context) ([]models.Registration, error) {
	var (
		all []models.Registration
		bar *progressbar.ProgressBar
	)
	for n := 1; ; n++ {
		p, err := c.fetchPage(ctx, n)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Data...)

		if bar == nil && c.progress != nil && p.TotalPages > 0 {
			bar = progressbar.NewOptions(p.TotalPages,
				progressbar.OptionSetWriter(c.progress),
				progressbar.OptionSetDescription("registrations"),
				progressbar.OptionShowCount(),
			)
		}
		if bar != nil {
			_ = bar.Add(1)
		}

		if len(p.Data) == 0 || n >= p.TotalPages {
			break
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	c.logger.Info("registrations fetched", zap.Int("count", len(all)))
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, n int) (page, error) {
	url := fmt.Sprintf("%s/registrations?page=%d&limit=%d", c.baseURL, n, c.pageSize)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying registrations page",
				zap.Int("page", n),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
		}

		p, wait, err := c.get(ctx, url)
		if err == nil {
			return p, nil
		}
		var perm permanentError
		if errors.As(err, &perm) || ctx.Err() != nil {
			return page{}, err
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}
		if wait <= 0 {
			wait = c.backoff << attempt
		}
		select {
		case <-ctx.Done():
			return page{}, ctx.Err()
		case <-time.After(wait):
		}
	}
	return page{}, fmt.Errorf("%w: page %d: %v", ErrRetriesExhausted, n, lastErr)
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// get performs one request. The returned duration is the server's Retry-After, if any.
func (c *Client) get(ctx context.Context, url string) (page, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return page{}, 0, permanentError{err}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return page{}, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		apiErr := fmt.Errorf("registrations API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return page{}, retryAfter(resp.Header.Get("Retry-After")), apiErr
		}
		return page{}, 0, permanentError{apiErr}
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return page{}, 0, permanentError{fmt.Errorf("decode registrations page: %w", err)}
	}
	return p, 0, nil
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
