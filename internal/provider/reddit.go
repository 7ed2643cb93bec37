package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"sentiment-lens/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	redditBaseURL     = "https://www.reddit.com"
	defaultRedditUA   = "sentiment-lens/1.0 (+https://github.com/sentiment-lens/sentiment-lens)"
	defaultRedditSize = 50
	maxRedditPage     = 100
)

type RedditProvider struct {
	client    *http.Client
	baseURL   string
	userAgent string
	tracer    trace.Tracer
	limiter   *RateLimiter
}

// NewRedditProvider reads the public JSON listings. Unauthenticated clients
// get roughly one request per second.
func NewRedditProvider(tracer trace.Tracer, userAgent string) *RedditProvider {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultRedditUA
	}
	return &RedditProvider{
		client:    &http.Client{Timeout: 20 * time.Second},
		baseURL:   redditBaseURL,
		userAgent: userAgent,
		tracer:    tracer,
		limiter:   NewRateLimiter(5, time.Second),
	}
}

// redditThing covers both posts (t3) and comments (t1).
type redditThing struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Body        string  `json:"body"`
	LinkTitle   string  `json:"link_title"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	Score       float64 `json:"score"`
	NumComments float64 `json:"num_comments"`
}

type redditListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string `json:"kind"`
			Data redditThing `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// FetchHot returns up to limit posts from the subreddit's hot listing,
// paging through the listing when limit exceeds one page.
func (p *RedditProvider) FetchHot(ctx context.Context, subreddit string, limit int) ([]ContentItem, error) {
	ctx, span := p.tracer.Start(ctx, "reddit.fetch-hot")
	defer span.End()
	span.SetAttributes(attribute.String("reddit.subreddit", subreddit), attribute.Int("reddit.limit", limit))

	return p.fetchListing(ctx, subreddit, "hot", limit)
}

// FetchComments returns up to limit of the newest comments posted in the subreddit.
func (p *RedditProvider) FetchComments(ctx context.Context, subreddit string, limit int) ([]ContentItem, error) {
	ctx, span := p.tracer.Start(ctx, "reddit.fetch-comments")
	defer span.End()
	span.SetAttributes(attribute.String("reddit.subreddit", subreddit), attribute.Int("reddit.limit", limit))

	return p.fetchListing(ctx, subreddit, "comments", limit)
}

func (p *RedditProvider) fetchListing(ctx context.Context, subreddit, listing string, limit int) ([]ContentItem, error) {
	subreddit = strings.TrimSpace(subreddit)
	if subreddit == "" {
		return nil, fmt.Errorf("%w: subreddit is required", domain.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = defaultRedditSize
	}

	base := strings.TrimRight(p.baseURL, "/")
	headers := map[string]string{"Accept": "application/json", "User-Agent": p.userAgent}

	items := make([]ContentItem, 0, limit)
	after := ""
	for len(items) < limit {
		page := min(limit-len(items), maxRedditPage)
		u := fmt.Sprintf("%s/r/%s/%s.json?limit=%d&raw_json=1", base, url.PathEscape(subreddit), listing, page)
		if after != "" {
			u += "&after=" + url.QueryEscape(after)
		}

		body, err := getBody(ctx, p.client, p.limiter, "reddit", u, headers)
		if err != nil {
			return nil, err
		}

		var payload redditListing
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("%w: decode reddit response: %w", domain.ErrSourceUnavailable, err)
		}

		for _, row := range payload.Data.Children {
			if len(items) >= limit {
				break
			}
			if item, ok := redditItem(base, subreddit, row.Kind, row.Data); ok {
				items = append(items, item)
			}
		}

		after = payload.Data.After
		if after == "" || len(payload.Data.Children) == 0 {
			break
		}
	}

	return items, nil
}

func redditItem(base, subreddit, kind string, data redditThing) (ContentItem, bool) {
	if strings.TrimSpace(data.ID) == "" {
		return ContentItem{}, false
	}

	forum := strings.TrimSpace(data.Subreddit)
	if forum == "" {
		forum = subreddit
	}
	itemURL := strings.TrimSpace(data.URL)
	if permalink := strings.TrimSpace(data.Permalink); permalink != "" {
		itemURL = base + permalink
	}
	item := ContentItem{
		Source:       "reddit",
		Forum:        forum,
		SourceItemID: data.ID,
		URL:          itemURL,
		Author:       sanitizeText(data.Author, 120),
		PublishedAt:  time.Unix(int64(data.CreatedUTC), 0).UTC(),
		Metadata: map[string]any{
			"subreddit": forum,
			"score":     data.Score,
		},
	}

	if kind == "t1" {
		item.Kind = domain.KindComment
		item.Body = sanitizeText(data.Body, 0)
		item.Metadata["link_title"] = sanitizeText(data.LinkTitle, 300)
		return item, true
	}

	item.Kind = domain.KindPost
	item.Title = sanitizeText(data.Title, 0)
	item.Body = sanitizeText(data.SelfText, 0)
	item.Metadata["num_comments"] = data.NumComments
	return item, true
}

// sanitizeText collapses whitespace. maxLen caps display-only fields; text
// that is matched and scored is passed with 0.
func sanitizeText(in string, maxLen int) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return ""
	}
	in = strings.Join(strings.Fields(in), " ")
	if maxLen > 0 && len(in) > maxLen {
		in = in[:maxLen]
		for len(in) > 0 && !utf8.ValidString(in) {
			in = in[:len(in)-1]
		}
	}
	return in
}
