package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/csheth/resurch/internal/httpclient"
	"github.com/csheth/resurch/internal/logger"
)

const (
	searchPath      = "/api/v1/search"
	feedPath        = "/api/v1/feed"
	interactionPath = "/api/v1/interactions"

	requestIDHeader = "X-Request-ID"
	errorBodyLimit  = 512
)

var (
	// ErrCatalogUnavailable marks a failed search or feed read. The
	// accompanying result is always an empty slice.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrMissingUser is returned by Feed when no user id is supplied.
	ErrMissingUser = errors.New("user id is required")
)

// Client talks to the remote catalog service.
type Client struct {
	baseURL string
	http    httpclient.Client
	log     *zap.SugaredLogger
}

// Options wires a Client.
type Options struct {
	BaseURL string
	// HTTP defaults to a resty transport with Timeout.
	HTTP    httpclient.Client
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

// New returns a catalog client rooted at opts.BaseURL.
func New(opts Options) *Client {
	transport := opts.HTTP
	if transport == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		transport = httpclient.NewRestyClient(timeout)
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    transport,
		log:     logger.OrNop(opts.Logger),
	}
}

// Search runs a keyword query. Papers come back in the order the service
// ranked them; limit is forwarded but not enforced locally.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Paper, error) {
	params := map[string]string{
		"q":     query,
		"limit": strconv.Itoa(limit),
	}
	return c.fetchPapers(ctx, "search", searchPath, params)
}

// Feed returns personalized recommendations for userID.
func (c *Client) Feed(ctx context.Context, userID string) ([]Paper, error) {
	if strings.TrimSpace(userID) == "" {
		return []Paper{}, ErrMissingUser
	}
	return c.fetchPapers(ctx, "feed", feedPath, map[string]string{"user_id": userID})
}

// Submit records a star or unstar. Any transport failure or non-2xx status
// is returned as an error.
func (c *Client) Submit(ctx context.Context, interaction Interaction) error {
	requestID := uuid.NewString()
	resp, err := c.http.PostJSON(ctx, c.baseURL+interactionPath, interaction, map[string]string{requestIDHeader: requestID})
	if err != nil {
		c.log.Warnw("interaction submit failed", "request_id", requestID, "paper_id", interaction.PaperID, "type", interaction.Type, "error", err)
		return fmt.Errorf("submit %s: %w", interaction.Type, err)
	}
	if !successful(resp.StatusCode()) {
		err := statusError(resp)
		c.log.Warnw("interaction rejected", "request_id", requestID, "paper_id", interaction.PaperID, "type", interaction.Type, "status", resp.StatusCode())
		return fmt.Errorf("submit %s: %w", interaction.Type, err)
	}
	c.log.Debugw("interaction recorded", "request_id", requestID, "paper_id", interaction.PaperID, "type", interaction.Type)
	return nil
}

func (c *Client) fetchPapers(ctx context.Context, op, path string, params map[string]string) ([]Paper, error) {
	started := time.Now()
	resp, err := c.http.Get(ctx, c.baseURL+path, params, nil)
	if err != nil {
		return c.unavailable(op, err)
	}
	if !successful(resp.StatusCode()) {
		return c.unavailable(op, statusError(resp))
	}

	var papers []Paper
	if err := json.Unmarshal(resp.Body(), &papers); err != nil {
		return c.unavailable(op, fmt.Errorf("decode %s response: %w", op, err))
	}
	if papers == nil {
		papers = []Paper{}
	}
	c.log.Debugw("catalog read", "op", op, "results", len(papers), "duration", time.Since(started))
	return papers, nil
}

func (c *Client) unavailable(op string, cause error) ([]Paper, error) {
	c.log.Warnw("catalog read failed", "op", op, "error", cause)
	return []Paper{}, fmt.Errorf("%w: %s: %v", ErrCatalogUnavailable, op, cause)
}

func successful(status int) bool {
	return status >= 200 && status < 300
}

func statusError(resp httpclient.Response) error {
	body := resp.Body()
	if len(body) > errorBodyLimit {
		body = body[:errorBodyLimit]
	}
	return fmt.Errorf("catalog API error: status %d (%s)", resp.StatusCode(), strings.TrimSpace(string(body)))
}
