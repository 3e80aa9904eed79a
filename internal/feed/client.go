package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/RichieLoco/coinsniper/internal/config"
)

// ExternalAPIError is a classified upstream failure carrying the feed's
// HTTP status code and best-effort body text.
type ExternalAPIError struct {
	StatusCode int
	Message    string
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("announcement feed returned %d: %s", e.StatusCode, e.Message)
}

// DecodeError is a classified malformed-body failure.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode feed response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Article is one raw feed article before domain mapping
type Article struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Type        int    `json:"type"`
	ReleaseDate int64  `json:"releaseDate"` // epoch milliseconds
}

type catalog struct {
	CatalogID   int64     `json:"catalogId"`
	CatalogName string    `json:"catalogName"`
	Articles    []Article `json:"articles"`
}

type feedResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    struct {
		Catalogs []catalog `json:"catalogs"`
	} `json:"data"`
}

// Client fetches announcement articles from the configured feed endpoint.
type Client struct {
	baseURL   string
	feedType  int
	pageNo    int
	pageSize  int
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a feed client from configuration
func NewClient(cfg config.FeedConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		feedType:  cfg.Type,
		pageNo:    cfg.PageNo,
		pageSize:  cfg.PageSize,
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}
}

// FetchArticles performs one rate-limited fetch against the feed. Non-2xx
// responses come back as *ExternalAPIError, malformed bodies as *DecodeError.
func (c *Client) FetchArticles(ctx context.Context) ([]Article, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("feed rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("type", strconv.Itoa(c.feedType))
	params.Set("pageNo", strconv.Itoa(c.pageNo))
	params.Set("pageSize", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Best-effort body capture for the audit record.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ExternalAPIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var decoded feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if !decoded.Success {
		return nil, &ExternalAPIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("feed reported failure: code=%s message=%s", decoded.Code, decoded.Message),
		}
	}

	var articles []Article
	for _, cat := range decoded.Data.Catalogs {
		articles = append(articles, cat.Articles...)
	}

	return articles, nil
}
