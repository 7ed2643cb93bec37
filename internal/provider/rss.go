package provider

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sentiment-lens/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type RSSProvider struct {
	client *http.Client
	tracer trace.Tracer
}

func NewRSSProvider(tracer trace.Tracer) *RSSProvider {
	return &RSSProvider{
		client: &http.Client{Timeout: 20 * time.Second},
		tracer: tracer,
	}
}

// FetchFeed reads an RSS 2.0 or Atom feed. Entries without a parseable date
// keep a zero PublishedAt.
func (p *RSSProvider) FetchFeed(ctx context.Context, feedURL string, maxItems int) ([]ContentItem, error) {
	ctx, span := p.tracer.Start(ctx, "rss.fetch-feed")
	defer span.End()
	span.SetAttributes(attribute.String("rss.url", feedURL))

	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, fmt.Errorf("%w: feed url is required", domain.ErrInvalidRequest)
	}
	if maxItems <= 0 {
		maxItems = 40
	}

	body, err := getBody(ctx, p.client, nil, "rss", feedURL, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml, text/xml",
	})
	if err != nil {
		return nil, err
	}

	var feed struct {
		Channel struct {
			Title string    `xml:"title"`
			Items []rssItem `xml:"item"`
		} `xml:"channel"`
		Title   string    `xml:"title"`
		Entries []rssItem `xml:"entry"`
	}
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: decode rss payload: %w", domain.ErrSourceUnavailable, err)
	}

	rows, channel := feed.Channel.Items, feed.Channel.Title
	if len(rows) == 0 && len(feed.Entries) > 0 {
		rows, channel = feed.Entries, feed.Title
	}

	items := make([]ContentItem, 0, min(maxItems, len(rows)))
	for _, row := range rows {
		if len(items) >= maxItems {
			break
		}
		title := sanitizeText(htmlStrip(row.Title), 0)
		description := sanitizeText(htmlStrip(row.description()), 0)
		if title == "" && description == "" {
			continue
		}
		publishedAt := parseRSSDate(row.date())
		author := sanitizeText(row.Creator, 120)
		if author == "" {
			author = sanitizeText(row.Author, 120)
		}
		link := sanitizeText(row.link(), 500)
		sourceID := sanitizeText(row.GUID, 250)
		if sourceID == "" {
			sourceID = link
		}
		if sourceID == "" {
			h := sha1.Sum([]byte(title + "|" + publishedAt.Format(time.RFC3339Nano)))
			sourceID = hex.EncodeToString(h[:])
		}

		items = append(items, ContentItem{
			Source:       "rss",
			Forum:        feedURL,
			Kind:         domain.KindPost,
			SourceItemID: sourceID,
			Title:        title,
			Body:         description,
			URL:          link,
			Author:       author,
			PublishedAt:  publishedAt,
			Metadata: map[string]any{
				"feed_url": feedURL,
				"channel":  sanitizeText(channel, 120),
			},
		})
	}

	return items, nil
}

type rssItem struct {
	Title       string    `xml:"title"`
	Links       []rssLink `xml:"link"`
	Description string    `xml:"description"`
	GUID        string    `xml:"guid"`
	PubDate     string    `xml:"pubDate"`
	Creator     string    `xml:"creator"`
	Author      string    `xml:"author"`

	// Atom
	Updated string `xml:"updated"`
	Summary string `xml:"summary"`
	Content string `xml:"content"`
}

// rssLink holds an RSS <link>url</link> or an Atom <link href="url"/>.
type rssLink struct {
	Href  string `xml:"href,attr"`
	Value string `xml:",chardata"`
}

func (r rssItem) description() string {
	for _, v := range []string{r.Description, r.Summary, r.Content} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (r rssItem) date() string {
	if r.PubDate != "" {
		return r.PubDate
	}
	return r.Updated
}

func (r rssItem) link() string {
	for _, l := range r.Links {
		if v := strings.TrimSpace(l.Value); v != "" {
			return v
		}
		if l.Href != "" {
			return l.Href
		}
	}
	return ""
}

func parseRSSDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// htmlStrip returns the visible text of an HTML fragment.
func htmlStrip(in string) string {
	if strings.TrimSpace(in) == "" || !strings.ContainsAny(in, "<&") {
		return in
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in))
	if err != nil {
		return in
	}
	return doc.Text()
}
