package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jordank1977/mimirr/internal/core"
	"github.com/jordank1977/mimirr/internal/core/model"
)

const (
	apiPrefix    = "/api/v1"
	apiKeyHeader = "X-Api-Key"

	// The add-author conflict is only distinguishable by the validator
	// name in the error body. Version-dependent upstream; if the wording
	// moves, this constant is the only thing to touch.
	authorExistsMarker = "AuthorExistsValidator"
)

// ReadarrClient talks to a Readarr-style library manager. It implements
// core.LibraryClient: every call carries the API key header, waits on the
// rate limiter, and maps the add-author conflict to a typed error so the
// core never inspects response bodies.
type ReadarrClient struct {
	Settings core.SettingsStore
	Client   *http.Client
	Retry    int

	limiter *rate.Limiter
	log     *slog.Logger
}

// NewReadarrClient builds a client. requestsPerSecond <= 0 disables rate
// limiting; retry < 0 is treated as no retries.
func NewReadarrClient(settings core.SettingsStore, httpClient *http.Client, retry, requestsPerSecond int, logger *slog.Logger) *ReadarrClient {
	if retry < 0 {
		retry = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
	return &ReadarrClient{
		Settings: settings,
		Client:   httpClient,
		Retry:    retry,
		limiter:  limiter,
		log:      logger,
	}
}

func (c *ReadarrClient) LookupAuthor(ctx context.Context, term string) ([]model.Author, error) {
	var out []model.Author
	err := c.getWithRetry(ctx, "/author/lookup", url.Values{"term": {term}}, &out)
	return out, err
}

func (c *ReadarrClient) LookupBook(ctx context.Context, term string) ([]model.Book, error) {
	var out []model.Book
	err := c.getWithRetry(ctx, "/book/lookup", url.Values{"term": {term}}, &out)
	return out, err
}

func (c *ReadarrClient) RootFolders(ctx context.Context) ([]model.RootFolder, error) {
	var out []model.RootFolder
	err := c.getWithRetry(ctx, "/rootFolder", nil, &out)
	return out, err
}

func (c *ReadarrClient) AddAuthor(ctx context.Context, author model.Author) (model.Author, error) {
	var out model.Author
	err := c.do(ctx, http.MethodPost, "/author", nil, author, &out)
	if err != nil {
		if strings.Contains(err.Error(), authorExistsMarker) {
			return model.Author{}, fmt.Errorf("%q: %w", author.AuthorName, model.ErrAuthorExists)
		}
		return model.Author{}, err
	}
	return out, nil
}

func (c *ReadarrClient) UpdateAuthor(ctx context.Context, author model.Author) (model.Author, error) {
	var out model.Author
	err := c.do(ctx, http.MethodPut, "/author", nil, author, &out)
	return out, err
}

func (c *ReadarrClient) BooksByAuthor(ctx context.Context, authorID int64) ([]model.Book, error) {
	var out []model.Book
	err := c.getWithRetry(ctx, "/book", url.Values{"authorId": {strconv.FormatInt(authorID, 10)}}, &out)
	return out, err
}

func (c *ReadarrClient) AddBook(ctx context.Context, book model.Book) (model.Book, error) {
	var out model.Book
	err := c.do(ctx, http.MethodPost, "/book", nil, book, &out)
	return out, err
}

func (c *ReadarrClient) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	var out model.Book
	err := c.do(ctx, http.MethodPut, "/book", nil, book, &out)
	return out, err
}

func (c *ReadarrClient) RefreshAuthor(ctx context.Context, authorID int64) error {
	cmd := map[string]any{"name": "RefreshAuthor", "authorId": authorID}
	return c.do(ctx, http.MethodPost, "/command", nil, cmd, nil)
}

// getWithRetry retries idempotent reads with a small linear backoff,
// the same shape the rest of our upstream clients use.
func (c *ReadarrClient) getWithRetry(ctx context.Context, path string, query url.Values, out any) error {
	var lastErr error
	attempts := c.Retry + 1
	for i := 0; i < attempts; i++ {
		lastErr = c.do(ctx, http.MethodGet, path, query, nil, out)
		if lastErr == nil {
			return nil
		}
		if i < attempts-1 {
			c.log.Debug("retrying readarr request", "path", path, "attempt", i+1, "error", lastErr)
			select {
			case <-time.After(time.Duration(150*(i+1)) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func (c *ReadarrClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	settings := c.Settings.Library()
	if !settings.Configured() {
		return model.ErrNotConfigured
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("readarr rate limit: %w", err)
		}
	}

	u := strings.TrimRight(settings.BaseURL, "/") + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set(apiKeyHeader, settings.APIKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("readarr %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("readarr %s %s: status %d: %s", method, path, resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("readarr %s %s: decode: %w", method, path, err)
	}
	return nil
}
