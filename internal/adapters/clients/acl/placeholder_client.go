package acl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

const (
	// PlaceholderServiceName identifies the placeholder API in errors, logs and health output.
	PlaceholderServiceName = "placeholder-api"

	postsPath = "/posts"

	// pushUserID is the fixed author id sent with every pushed quote.
	pushUserID = 1
)

// PlaceholderClientConfig contains configuration for the placeholder client.
type PlaceholderClientConfig struct {
	// Client is the HTTP client to use. Its BaseURL points at the placeholder API.
	Client *clients.Client

	// Logger is the structured logger.
	Logger *slog.Logger
}

// PlaceholderClient implements ports.RemoteSync against a JSONPlaceholder-style
// posts API. Post titles become quote text; pushed quotes are sent as posts.
type PlaceholderClient struct {
	BaseAdapter

	logger *slog.Logger
}

var _ ports.RemoteSync = (*PlaceholderClient)(nil)

// NewPlaceholderClient creates the adapter. Panics if Client is nil.
func NewPlaceholderClient(cfg PlaceholderClientConfig) *PlaceholderClient {
	if cfg.Client == nil {
		panic("PlaceholderClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PlaceholderClient{
		BaseAdapter: NewBaseAdapter(cfg.Client, PlaceholderServiceName),
		logger:      logger.With(slog.String("component", "acl.PlaceholderClient")),
	}
}

// placeholderPost is the external post DTO. Never exposed outside the ACL.
type placeholderPost struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// placeholderCreate is the payload of a push.
type placeholderCreate struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	UserID   int    `json:"userId"`
	Category string `json:"category"`
}

// FetchQuotes lists posts, keeps the first limit of them and translates each
// title into a quote in the sync category. Posts with blank titles are dropped.
func (c *PlaceholderClient) FetchQuotes(ctx context.Context, limit int) ([]domain.Quote, error) {
	logger := logging.FromContextOr(ctx, c.logger)
	logger.Log(ctx, logging.LevelTrace, "fetching posts", slog.Int("limit", limit))

	body, _, err := c.Get(ctx, postsPath, "fetch quotes")
	if err != nil {
		return nil, err
	}

	posts, err := DecodeResponseForService[[]placeholderPost](body, c.ServiceName())
	if err != nil {
		return nil, err
	}

	items := *posts
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	quotes := TranslateSlice(items, translatePost)

	logger.DebugContext(ctx, "posts fetched",
		slog.Int("received", len(*posts)),
		slog.Int("kept", len(quotes)),
	)

	return quotes, nil
}

// PushQuote creates a post from quote. The echoed id is returned in the receipt.
func (c *PlaceholderClient) PushQuote(ctx context.Context, quote domain.Quote) (*ports.PushReceipt, error) {
	payload := placeholderCreate{
		Title:    quote.Text,
		Body:     quote.Text,
		UserID:   pushUserID,
		Category: quote.Category,
	}

	body, status, err := c.Post(ctx, postsPath, payload, "push quote")
	if err != nil {
		return nil, err
	}

	created, err := DecodeResponseForService[placeholderPost](body, c.ServiceName())
	if err != nil {
		return nil, err
	}

	return &ports.PushReceipt{RemoteID: created.ID, Status: status}, nil
}

// Name implements ports.HealthChecker.
func (c *PlaceholderClient) Name() string {
	return c.ServiceName()
}

// Check implements ports.HealthChecker with a lightweight single-post probe.
func (c *PlaceholderClient) Check(ctx context.Context) error {
	body, _, err := c.Get(ctx, postsPath+"/1", "health check")
	if err != nil {
		return fmt.Errorf("%s health check: %w", c.ServiceName(), err)
	}

	return body.Close()
}

func translatePost(post *placeholderPost) (domain.Quote, bool) {
	title := strings.TrimSpace(post.Title)
	if title == "" {
		return domain.Quote{}, false
	}

	return domain.Quote{Text: title, Category: domain.SyncCategory}, true
}
