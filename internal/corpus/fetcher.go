package corpus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sentiment-lens/internal/domain"
	"sentiment-lens/internal/metrics"
	"sentiment-lens/internal/provider"
	"sentiment-lens/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	MaxItemsPerForum = 500
	maxParallelForum = 4
)

// ForumSource lists recent items of a discussion forum.
type ForumSource interface {
	FetchHot(ctx context.Context, forum string, limit int) ([]provider.ContentItem, error)
	FetchComments(ctx context.Context, forum string, limit int) ([]provider.ContentItem, error)
}

// FeedSource lists recent entries of a syndication feed.
type FeedSource interface {
	FetchFeed(ctx context.Context, feedURL string, maxItems int) ([]provider.ContentItem, error)
}

type Options struct {
	Matcher         Matcher
	IncludeComments bool
	Retry           provider.RetryPolicy
}

// Fetcher turns forum listings into TextEvents.
type Fetcher struct {
	forums          ForumSource
	feeds           FeedSource
	matcher         Matcher
	includeComments bool
	retry           provider.RetryPolicy
	tracer          trace.Tracer
	log             *logger.Entry
}

func NewFetcher(tracer trace.Tracer, forums ForumSource, feeds FeedSource, opts Options) *Fetcher {
	if opts.Matcher == nil {
		opts.Matcher = SubstringMatcher{}
	}
	return &Fetcher{
		forums:          forums,
		feeds:           feeds,
		matcher:         opts.Matcher,
		includeComments: opts.IncludeComments,
		retry:           opts.Retry,
		tracer:          tracer,
		log:             logger.Get().WithComponent("corpus"),
	}
}

// Forum identifies one text source. Plain names and "reddit:" or "r/"
// prefixes select a subreddit; "rss:" selects a feed URL.
type Forum struct {
	Kind string
	Name string
}

func (f Forum) String() string {
	return f.Kind + ":" + f.Name
}

func ParseForum(id string) (Forum, error) {
	id = strings.TrimSpace(id)
	switch {
	case strings.HasPrefix(id, "rss:"):
		u := strings.TrimSpace(strings.TrimPrefix(id, "rss:"))
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return Forum{}, fmt.Errorf("%w: feed %q is not an http(s) url", domain.ErrInvalidRequest, u)
		}
		return Forum{Kind: "rss", Name: u}, nil
	case strings.HasPrefix(id, "reddit:"):
		id = strings.TrimPrefix(id, "reddit:")
	case strings.HasPrefix(id, "r/"):
		id = strings.TrimPrefix(id, "r/")
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/?# ") {
		return Forum{}, fmt.Errorf("%w: invalid forum %q", domain.ErrInvalidRequest, id)
	}
	return Forum{Kind: "reddit", Name: id}, nil
}

// Fetch lists up to maxPerForum items from every forum and returns one
// TextEvent per (item, mentioned symbol) pair. Forums are fetched in
// parallel but events keep forum order, then listing order. The first
// failing forum aborts the fetch.
func (f *Fetcher) Fetch(ctx context.Context, symbols, forums []string, maxPerForum int) ([]domain.TextEvent, error) {
	ctx, span := f.tracer.Start(ctx, "corpus.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.StringSlice("corpus.symbols", symbols),
		attribute.StringSlice("corpus.forums", forums),
		attribute.Int("corpus.max_per_forum", maxPerForum),
	)

	symbols = uniqueSymbols(symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: at least one symbol is required", domain.ErrInvalidRequest)
	}
	if maxPerForum <= 0 || maxPerForum > MaxItemsPerForum {
		return nil, fmt.Errorf("%w: item limit %d outside 1..%d", domain.ErrInvalidRequest, maxPerForum, MaxItemsPerForum)
	}
	parsed := make([]Forum, 0, len(forums))
	for _, id := range forums {
		forum, err := ParseForum(id)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, forum)
	}

	results := make([][]provider.ContentItem, len(parsed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelForum)
	for i, forum := range parsed {
		g.Go(func() error {
			items, err := f.fetchForum(gctx, forum, maxPerForum)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	events := make([]domain.TextEvent, 0)
	for _, items := range results {
		for _, item := range items {
			events = append(events, f.eventsFor(item, symbols)...)
		}
	}
	span.SetAttributes(attribute.Int("corpus.events", len(events)))
	f.log.WithFields(logger.Fields{"forums": len(parsed), "events": len(events)}).Debug("corpus fetched")
	return events, nil
}

func (f *Fetcher) fetchForum(ctx context.Context, forum Forum, limit int) ([]provider.ContentItem, error) {
	start := time.Now()
	collaborator := forum.Kind
	params := map[string]string{"forum": forum.Name, "limit": strconv.Itoa(limit)}

	var (
		items []provider.ContentItem
		err   error
	)
	switch forum.Kind {
	case "rss":
		if f.feeds == nil {
			err = fmt.Errorf("%w: no feed source configured", domain.ErrInvalidRequest)
			break
		}
		items, err = provider.Retry(ctx, f.retry, func(ctx context.Context) ([]provider.ContentItem, error) {
			return f.feeds.FetchFeed(ctx, forum.Name, limit)
		})
	default:
		items, err = provider.Retry(ctx, f.retry, func(ctx context.Context) ([]provider.ContentItem, error) {
			return f.forums.FetchHot(ctx, forum.Name, limit)
		})
		if err == nil && f.includeComments {
			params["comments"] = "true"
			var comments []provider.ContentItem
			comments, err = provider.Retry(ctx, f.retry, func(ctx context.Context) ([]provider.ContentItem, error) {
				return f.forums.FetchComments(ctx, forum.Name, limit)
			})
			items = append(items, comments...)
		}
	}
	metrics.RecordFetch(collaborator, time.Since(start), err)

	if err != nil {
		f.log.WithFields(logger.Fields{"forum": forum.String()}).WithError(err).Warn("forum fetch failed")
		return nil, &domain.FetchError{Collaborator: collaborator, Params: params, Err: err}
	}
	return items, nil
}

func (f *Fetcher) eventsFor(item provider.ContentItem, symbols []string) []domain.TextEvent {
	text := strings.TrimSpace(item.Text())
	if text == "" {
		return nil
	}
	matched := f.matcher.Match(text, symbols)
	if len(matched) == 0 {
		return nil
	}

	ts := item.PublishedAt
	if ts.IsZero() {
		ts = time.Unix(0, 0)
	}
	ts = ts.UTC().Truncate(time.Second)

	kind := item.Kind
	if kind == "" {
		kind = domain.KindPost
	}
	out := make([]domain.TextEvent, 0, len(matched))
	for _, symbol := range matched {
		out = append(out, domain.TextEvent{
			Symbol:    symbol,
			Text:      text,
			Timestamp: ts,
			Forum:     item.Forum,
			Source:    item.Source,
			ItemID:    item.SourceItemID,
			Kind:      kind,
		})
	}
	return out
}
